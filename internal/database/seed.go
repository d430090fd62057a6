package database

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/wallet"
)

// Seed makes sure an Admin account exists for the configured wallet.
// The admin authenticates like everyone else, through the signing
// challenge; seeding just pins the Admin role to the wallet before its
// first contact. An existing row for the wallet is left untouched.
func Seed(db *sql.DB, adminWallet string) error {
	addr := wallet.NormalizeAddress(adminWallet)
	if addr == "" {
		return nil
	}

	var existing string
	err := db.QueryRow("SELECT id FROM users WHERE wallet_address = ?", addr).Scan(&existing)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	id := uuid.New().String()
	_, err = db.Exec(
		"INSERT INTO users (id, wallet_address, role, name) VALUES (?, ?, ?, ?)",
		id, addr, models.RoleAdmin, "Administrator",
	)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", id).Str("wallet", addr).Msg("Seeded admin account")
	return nil
}
