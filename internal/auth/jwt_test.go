package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/models"
)

var testUser = models.User{
	ID:            "user-1",
	WalletAddress: "0xabc123",
	Email:         "dev@example.com",
	Role:          models.RoleCandidate,
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager([]byte("secret"), auth.SessionTTL)

	token, err := tm.Generate(testUser)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "0xabc123", claims.WalletAddress)
	assert.Equal(t, "dev@example.com", claims.Email)
	assert.Equal(t, models.RoleCandidate, claims.Role)
	assert.WithinDuration(t, time.Now().Add(auth.SessionTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tm := auth.NewTokenManager([]byte("secret"), -time.Minute)

	token, err := tm.Generate(testUser)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewTokenManager([]byte("secret-a"), auth.SessionTTL).Generate(testUser)
	require.NoError(t, err)

	_, err = auth.NewTokenManager([]byte("secret-b"), auth.SessionTTL).Verify(token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager([]byte("secret"), auth.SessionTTL)
	_, err := tm.Verify("not.a.token")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestMiddleware(t *testing.T) {
	tm := auth.NewTokenManager([]byte("secret"), auth.SessionTTL)
	token, err := tm.Generate(testUser)
	require.NoError(t, err)

	var seen *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ClaimsFrom(r.Context())
	})
	protected := tm.Middleware()(next)

	t.Run("bearer header", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalMiddleware(t *testing.T) {
	tm := auth.NewTokenManager([]byte("secret"), auth.SessionTTL)
	token, err := tm.Generate(testUser)
	require.NoError(t, err)

	var seen *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ClaimsFrom(r.Context())
	})
	public := tm.OptionalMiddleware()(next)

	t.Run("valid token attaches claims", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		public.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
	})

	t.Run("missing token passes through anonymously", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		public.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("invalid token passes through anonymously", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		public.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, seen)
	})
}
