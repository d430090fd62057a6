package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/services"
)

// AuthHandler handles the wallet challenge-response endpoints.
type AuthHandler struct {
	service services.AuthServiceProvider
	users   services.UserServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider, users services.UserServiceProvider) *AuthHandler {
	return &AuthHandler{service: service, users: users}
}

// NoncePayload is the challenge request body.
type NoncePayload struct {
	WalletAddress string `json:"walletAddress"`
}

// VerifyPayload is the signature verification request body.
type VerifyPayload struct {
	WalletAddress string `json:"walletAddress"`
	Signature     string `json:"signature"`
}

// Nonce issues a fresh signing challenge for a wallet.
func (h *AuthHandler) Nonce(w http.ResponseWriter, r *http.Request) {
	var payload NoncePayload
	if err := decode(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.service.IssueChallenge(r.Context(), payload.WalletAddress)
	if err != nil {
		log.Warn().Err(err).Str("wallet", payload.WalletAddress).Msg("Failed to issue challenge")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// Verify checks a signature over the current challenge and returns a
// session token with the authenticated user.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var payload VerifyPayload
	if err := decode(r, &payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.service.VerifySignature(r.Context(), payload.WalletAddress, payload.Signature)
	if err != nil {
		log.Warn().Err(err).Str("wallet", payload.WalletAddress).Msg("Failed signature verification")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Me returns the user record behind the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("User from token not found")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
