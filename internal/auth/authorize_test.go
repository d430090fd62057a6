package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/models"
)

func TestAuthorize(t *testing.T) {
	employer := &auth.Claims{UserID: "emp-1", Role: models.RoleEmployer}
	candidate := &auth.Claims{UserID: "cand-1", Role: models.RoleCandidate}
	admin := &auth.Claims{UserID: "adm-1", Role: models.RoleAdmin}

	t.Run("admin always passes", func(t *testing.T) {
		assert.NoError(t, auth.Authorize(admin, "someone-else"))
		assert.NoError(t, auth.Authorize(admin, "", models.RoleEmployer))
	})

	t.Run("owner passes", func(t *testing.T) {
		assert.NoError(t, auth.Authorize(employer, "emp-1"))
	})

	t.Run("non-owner denied", func(t *testing.T) {
		err := auth.Authorize(employer, "emp-2")
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("role gate", func(t *testing.T) {
		assert.NoError(t, auth.Authorize(employer, "", models.RoleEmployer))
		err := auth.Authorize(candidate, "", models.RoleEmployer)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("nil claims", func(t *testing.T) {
		err := auth.Authorize(nil, "emp-1")
		assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
	})
}
