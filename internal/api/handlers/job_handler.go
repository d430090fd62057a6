package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/cache"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/services"
)

// JobHandler handles HTTP requests for the job board.
type JobHandler struct {
	service services.JobServiceProvider
	cache   *cache.Cache
}

// NewJobHandler creates a new JobHandler. queryCache may be nil.
func NewJobHandler(service services.JobServiceProvider, queryCache *cache.Cache) *JobHandler {
	return &JobHandler{service: service, cache: queryCache}
}

func (h *JobHandler) invalidate(r *http.Request) {
	h.cache.InvalidatePrefix(r.Context(), "jobs:")
}

// List handles listing jobs with an optional status filter.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.JobStatus(r.URL.Query().Get("status"))

	_, authenticated := auth.ClaimsFrom(r.Context())
	key := "jobs:list:" + string(status)
	if !authenticated {
		var cached []models.Job
		if h.cache.Get(r.Context(), key, &cached) {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	jobs, err := h.service.ListJobs(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	if !authenticated {
		h.cache.Set(r.Context(), key, jobs)
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Get handles retrieving one job.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ByEmployer handles listing an employer's postings.
func (h *JobHandler) ByEmployer(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.JobsByEmployer(r.Context(), chi.URLParam(r, "employerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Search handles free-text search over postings.
func (h *JobHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing search query", http.StatusBadRequest)
		return
	}

	_, authenticated := auth.ClaimsFrom(r.Context())
	key := "jobs:search:" + query
	if !authenticated {
		var cached []models.Job
		if h.cache.Get(r.Context(), key, &cached) {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	jobs, err := h.service.SearchJobs(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	if !authenticated {
		h.cache.Set(r.Context(), key, jobs)
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Create handles opening a new posting.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var input services.CreateJobInput
	if err := decode(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.service.CreateJob(r.Context(), claims, input)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusCreated, job)
}

// Update handles patching a posting.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	var patch services.JobUpdate
	if err := decode(r, &patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.service.UpdateJob(r.Context(), claims, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, job)
}

// Close handles closing a posting to further applications.
func (h *JobHandler) Close(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	job, err := h.service.CloseJob(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, job)
}

// Apply handles a candidate applying to an open posting.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	job, err := h.service.ApplyToJob(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.invalidate(r)
	writeJSON(w, http.StatusOK, job)
}
