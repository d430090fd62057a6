package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/chain"
	"github.com/web3hire/web3hire-be/internal/ipfs"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/services"
)

// UserHandler handles HTTP requests for user profiles.
type UserHandler struct {
	service services.UserServiceProvider
	pinner  *ipfs.Client
	chain   *chain.Client
}

// NewUserHandler creates a new UserHandler. pinner and chainClient may be
// nil when those integrations are not configured.
func NewUserHandler(service services.UserServiceProvider, pinner *ipfs.Client, chainClient *chain.Client) *UserHandler {
	return &UserHandler{service: service, pinner: pinner, chain: chainClient}
}

// List handles retrieving all users, optionally filtered by role.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	users, err := h.service.ListUsers(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetByWallet handles looking a user up by wallet address.
func (h *UserHandler) GetByWallet(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	user, err := h.service.GetUserByWallet(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles updating the authenticated user's own profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var patch services.UserUpdate
	if err := decode(r, &patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), claims.UserID, patch)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to update user")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadResume pins the uploaded resume to IPFS, anchors it on chain when
// configured, and stores the hash on the profile.
func (h *UserHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}
	if h.pinner == nil {
		writeError(w, apperr.Upstream("resume storage is not configured", nil))
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing resume file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	hash, err := h.pinner.PinFile(r.Context(), header.Filename, "resume", file)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to pin resume")
		writeError(w, err)
		return
	}

	if h.chain != nil {
		if _, err := h.chain.RegisterResume(r.Context(), hash); err != nil {
			log.Warn().Err(err).Str("user_id", claims.UserID).Msg("Chain mirror failed for resume")
		}
	}

	user, err := h.service.SetResumeHash(r.Context(), claims.UserID, hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":      user,
		"resumeUrl": h.pinner.GatewayURL(hash),
	})
}
