package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/database"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/services"
)

const challengePrefix = "Please sign this message to verify your wallet ownership: "

func newAuthFixture(t *testing.T) (*services.AuthService, *services.UserService, *auth.TokenManager) {
	t.Helper()
	db := newTestDB(t)
	tokens := auth.NewTokenManager([]byte("test-secret"), auth.SessionTTL)
	users := services.NewUserService(db)
	return services.NewAuthService(db, users, tokens), users, tokens
}

func TestIssueChallengeCreatesCandidateOnFirstContact(t *testing.T) {
	authSvc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	addr := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(message, challengePrefix))

	user, err := users.GetUserByWallet(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCandidate, user.Role)
	assert.Equal(t, strings.ToLower(addr), user.WalletAddress)
	assert.Equal(t, "User-"+strings.ToLower(addr)[:6], user.Name)
	assert.Equal(t, challengePrefix+user.Nonce, message)
}

func TestIssueChallengeRotatesNonce(t *testing.T) {
	authSvc, users, _ := newAuthFixture(t)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	addr := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	first, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)
	userBefore, err := users.GetUserByWallet(ctx, addr)
	require.NoError(t, err)

	second, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)
	userAfter, err := users.GetUserByWallet(ctx, addr)
	require.NoError(t, err)

	// Same user, new challenge.
	assert.Equal(t, userBefore.ID, userAfter.ID)
	assert.Equal(t, challengePrefix+userAfter.Nonce, second)

	// A signature over the stale first challenge must not authenticate.
	staleSig, err := ethcrypto.Sign(accounts.TextHash([]byte(first)), key)
	require.NoError(t, err)
	staleSig[64] += 27
	_, _, err = authSvc.VerifySignature(ctx, addr, hexutil.Encode(staleSig))
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestVerifySignatureHappyPath(t *testing.T) {
	authSvc, _, tokens := newAuthFixture(t)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	// Mixed-case claim: lowercasing is the service's problem.
	addr := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)

	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27

	token, user, err := authSvc.VerifySignature(ctx, addr, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(addr), user.WalletAddress)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, strings.ToLower(addr), claims.WalletAddress)
	assert.Equal(t, models.RoleCandidate, claims.Role)
}

func TestVerifySignatureReplayFails(t *testing.T) {
	authSvc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	addr := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	message, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27
	encoded := hexutil.Encode(sig)

	_, _, err = authSvc.VerifySignature(ctx, addr, encoded)
	require.NoError(t, err)

	// Nonce rotated on success; the same signature no longer matches.
	_, _, err = authSvc.VerifySignature(ctx, addr, encoded)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestVerifySignatureWrongKey(t *testing.T) {
	authSvc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	victim, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	attacker, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	addr := ethcrypto.PubkeyToAddress(victim.PublicKey).Hex()

	message, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)

	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), attacker)
	require.NoError(t, err)
	sig[64] += 27

	_, _, err = authSvc.VerifySignature(ctx, addr, hexutil.Encode(sig))
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestSeededAdminAuthenticates(t *testing.T) {
	db := newTestDB(t)
	tokens := auth.NewTokenManager([]byte("test-secret"), auth.SessionTTL)
	users := services.NewUserService(db)
	authSvc := services.NewAuthService(db, users, tokens)
	ctx := context.Background()

	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	addr := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	require.NoError(t, database.Seed(db, addr))

	// The admin goes through the same challenge flow as everyone else
	// and must come out with Admin-role claims, not a fresh Candidate.
	message, err := authSvc.IssueChallenge(ctx, addr)
	require.NoError(t, err)
	sig, err := ethcrypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[64] += 27

	token, user, err := authSvc.VerifySignature(ctx, addr, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestVerifySignatureUnknownWallet(t *testing.T) {
	authSvc, _, _ := newAuthFixture(t)

	_, _, err := authSvc.VerifySignature(context.Background(), "0xdeadbeef", "0x00")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
