package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/wallet"
)

// AuthServiceProvider defines the interface for wallet authentication.
type AuthServiceProvider interface {
	IssueChallenge(ctx context.Context, walletAddress string) (string, error)
	VerifySignature(ctx context.Context, walletAddress, signature string) (string, models.User, error)
}

// AuthService implements the challenge-response flow: a nonce-bound
// challenge per wallet, signature verification against it, nonce rotation
// on success and a session token minted from the verified identity.
type AuthService struct {
	db     *sql.DB
	users  UserServiceProvider
	tokens *auth.TokenManager
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, users UserServiceProvider, tokens *auth.TokenManager) *AuthService {
	return &AuthService{db: db, users: users, tokens: tokens}
}

// IssueChallenge returns the message the wallet must sign. The wallet's
// user record is created on first contact; the stored nonce is replaced
// on every call, so any outstanding unsigned challenge dies here.
func (s *AuthService) IssueChallenge(ctx context.Context, walletAddress string) (string, error) {
	addr := wallet.NormalizeAddress(walletAddress)
	if addr == "" {
		return "", apperr.Unauthenticated("wallet address required")
	}

	nonce, err := wallet.NewNonce()
	if err != nil {
		return "", apperr.Upstream("generating nonce", err)
	}

	// Single upsert: creates the Candidate shell on first contact,
	// otherwise just rotates the nonce.
	now := time.Now().UTC()
	displayName := "User-" + addr[:min(6, len(addr))]
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, wallet_address, role, name, nonce, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(wallet_address) DO UPDATE SET nonce = excluded.nonce, updated_at = excluded.updated_at`,
		uuid.New().String(), addr, models.RoleCandidate, displayName, nonce, now, now,
	)
	if err != nil {
		return "", apperr.Upstream("storing nonce", err)
	}

	return wallet.ChallengeMessage(nonce), nil
}

// VerifySignature checks a signature over the wallet's current challenge.
// On success the nonce rotates immediately, so the same signature can
// never authenticate twice, and a session token is minted.
func (s *AuthService) VerifySignature(ctx context.Context, walletAddress, signature string) (string, models.User, error) {
	addr := wallet.NormalizeAddress(walletAddress)

	user, err := s.users.GetUserByWallet(ctx, addr)
	if err != nil {
		return "", models.User{}, err
	}

	message := wallet.ChallengeMessage(user.Nonce)
	recovered, err := wallet.RecoverAddress(message, signature)
	if err != nil {
		log.Warn().Err(err).Str("wallet", addr).Msg("Signature recovery failed")
		return "", models.User{}, apperr.Wrap(apperr.KindUnauthenticated, "invalid signature", err)
	}
	if wallet.NormalizeAddress(recovered) != addr {
		return "", models.User{}, apperr.Unauthenticated("invalid signature")
	}

	newNonce, err := wallet.NewNonce()
	if err != nil {
		return "", models.User{}, apperr.Upstream("generating nonce", err)
	}

	// Conditional on the nonce still being the one we verified against:
	// two concurrent verifies over the same challenge cannot both win.
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET nonce = ?, updated_at = ? WHERE id = ? AND nonce = ?",
		newNonce, time.Now().UTC(), user.ID, user.Nonce,
	)
	if err != nil {
		return "", models.User{}, apperr.Upstream("rotating nonce", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", models.User{}, apperr.Unauthenticated("challenge no longer valid")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", models.User{}, apperr.Upstream("minting session token", err)
	}

	log.Info().Str("wallet", addr).Str("user_id", user.ID).Msg("Wallet authenticated")
	return token, user, nil
}
