package services_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/database"
	"github.com/web3hire/web3hire-be/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// newTestUser inserts a user row and returns matching claims, the way a
// verified session token would present them.
func newTestUser(t *testing.T, db *sql.DB, role models.Role, walletAddress string) (models.User, *auth.Claims) {
	t.Helper()
	user := models.User{
		ID:            uuid.New().String(),
		WalletAddress: walletAddress,
		Role:          role,
		Name:          "Test " + string(role),
	}
	now := time.Now().UTC()
	var addr interface{}
	if walletAddress != "" {
		addr = walletAddress
	}
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO users (id, wallet_address, role, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, addr, user.Role, user.Name, now, now,
	)
	require.NoError(t, err)

	claims := &auth.Claims{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
		Role:          user.Role,
	}
	return user, claims
}
