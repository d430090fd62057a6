package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/services"
)

// MatchHandler exposes the matching scorer.
type MatchHandler struct {
	service services.MatchServiceProvider
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(service services.MatchServiceProvider) *MatchHandler {
	return &MatchHandler{service: service}
}

// CandidatesForJob handles ranking candidates for a posting.
func (h *MatchHandler) CandidatesForJob(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.CandidatesForJob(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// JobsForCandidate handles ranking postings for a candidate.
func (h *MatchHandler) JobsForCandidate(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFrom(r.Context())
	matches, err := h.service.JobsForCandidate(r.Context(), claims, chi.URLParam(r, "candidateId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
