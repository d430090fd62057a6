package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/cache"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/services"
)

// TaskHandler handles HTTP requests for the task workflow.
type TaskHandler struct {
	service services.TaskServiceProvider
	cache   *cache.Cache
}

// NewTaskHandler creates a new TaskHandler. queryCache may be nil.
func NewTaskHandler(service services.TaskServiceProvider, queryCache *cache.Cache) *TaskHandler {
	return &TaskHandler{service: service, cache: queryCache}
}

func (h *TaskHandler) invalidate(r *http.Request) {
	h.cache.InvalidatePrefix(r.Context(), "tasks:")
}

// List handles listing tasks with an optional status filter. Results for
// unauthenticated requests may come from the query cache; authenticated
// callers always hit the database.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.TaskStatus(r.URL.Query().Get("status"))

	_, authenticated := auth.ClaimsFrom(r.Context())
	key := "tasks:list:" + string(status)
	if !authenticated {
		var cached []models.Task
		if h.cache.Get(r.Context(), key, &cached) {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	tasks, err := h.service.ListTasks(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	if !authenticated {
		h.cache.Set(r.Context(), key, tasks)
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles retrieving one task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ByEmployer handles listing an employer's tasks.
func (h *TaskHandler) ByEmployer(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.TasksByEmployer(r.Context(), chi.URLParam(r, "employerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Search handles free-text search over tasks.
func (h *TaskHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing search query", http.StatusBadRequest)
		return
	}

	_, authenticated := auth.ClaimsFrom(r.Context())
	key := "tasks:search:" + query
	if !authenticated {
		var cached []models.Task
		if h.cache.Get(r.Context(), key, &cached) {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	tasks, err := h.service.SearchTasks(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if !authenticated {
		h.cache.Set(r.Context(), key, tasks)
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Create handles opening a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var input services.CreateTaskInput
	if err := decode(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.CreateTask(r.Context(), claims, input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusCreated, task)
}

// Update handles patching a task's descriptive fields.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var patch services.TaskUpdate
	if err := decode(r, &patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), claims, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}

// Cancel handles cancelling a task.
func (h *TaskHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	task, err := h.service.CancelTask(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}

// Bid handles placing a bid on an open task.
func (h *TaskHandler) Bid(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var input services.BidInput
	if err := decode(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.BidOnTask(r.Context(), claims, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}

// AwardPayload names the winning bidder.
type AwardPayload struct {
	BidderID string `json:"bidderId"`
}

// Award handles declaring a winner.
func (h *TaskHandler) Award(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var payload AwardPayload
	if err := decode(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.AwardTask(r.Context(), claims, chi.URLParam(r, "id"), payload.BidderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}

// SubmitDeliverable handles the winner submitting work.
func (h *TaskHandler) SubmitDeliverable(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var input services.DeliverableInput
	if err := decode(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	task, err := h.service.SubmitDeliverable(r.Context(), claims, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}

// Complete handles closing out an in-progress task.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	task, err := h.service.CompleteTask(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, task)
}
