package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/services"
)

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	user, _ := newTestUser(t, db, models.RoleCandidate, "0xcand")

	name := "Ada"
	email := "  Ada@Example.COM "
	skills := []string{"Go", "Solidity"}
	links := models.SocialLinks{Github: "https://github.com/ada"}
	got, err := users.UpdateUser(ctx, user.ID, services.UserUpdate{
		Name:        &name,
		Email:       &email,
		Skills:      &skills,
		SocialLinks: &links,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, skills, got.Skills)
	assert.Equal(t, links, got.SocialLinks)
	// Untouched fields survive the patch.
	assert.Equal(t, user.WalletAddress, got.WalletAddress)
	assert.Equal(t, models.RoleCandidate, got.Role)

	t.Run("empty patch is a read", func(t *testing.T) {
		got, err := users.UpdateUser(ctx, user.ID, services.UserUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.UpdateUser(ctx, "nope", services.UserUpdate{Name: &name})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestGetUserByWalletNormalizes(t *testing.T) {
	db := newTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	user, _ := newTestUser(t, db, models.RoleCandidate, "0xabc123def")

	got, err := users.GetUserByWallet(ctx, "  0xABC123DEF ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = users.GetUserByWallet(ctx, "0xunknown")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListUsersByRole(t *testing.T) {
	db := newTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	newTestUser(t, db, models.RoleCandidate, "0xc1")
	newTestUser(t, db, models.RoleCandidate, "0xc2")
	newTestUser(t, db, models.RoleEmployer, "0xe1")

	candidates, err := users.ListUsers(ctx, models.RoleCandidate)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	all, err := users.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSetResumeHash(t *testing.T) {
	db := newTestDB(t)
	users := services.NewUserService(db)
	ctx := context.Background()

	user, _ := newTestUser(t, db, models.RoleCandidate, "0xcand")

	got, err := users.SetResumeHash(ctx, user.ID, "QmResumeHash")
	require.NoError(t, err)
	assert.Equal(t, "QmResumeHash", got.ResumeIpfsHash)

	_, err = users.SetResumeHash(ctx, "nope", "QmResumeHash")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
