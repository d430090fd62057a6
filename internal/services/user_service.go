package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/models"
	"github.com/web3hire/web3hire-be/internal/wallet"
)

// UserUpdate carries the mutable profile fields; nil pointers are left
// unchanged. Role, wallet and nonce are not reachable from here.
type UserUpdate struct {
	Name         *string             `json:"name"`
	Email        *string             `json:"email"`
	Bio          *string             `json:"bio"`
	Skills       *[]string           `json:"skills"`
	ProfileImage *string             `json:"profileImage"`
	SocialLinks  *models.SocialLinks `json:"socialLinks"`
	Preferences  *models.Preferences `json:"preferences"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByWallet(ctx context.Context, walletAddress string) (models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserUpdate) (models.User, error)
	SetResumeHash(ctx context.Context, id, ipfsHash string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, wallet_address, email, role, name, nonce, skills_json, bio,
	resume_ipfs_hash, profile_image, social_links_json, preferences_json, created_at, updated_at`

// scanUser is a helper to scan a user from a row or rows object.
func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var walletAddr, email, name, nonce, skills, bio, resumeHash, image, social, prefs sql.NullString

	err := scanner.Scan(
		&user.ID, &walletAddr, &email, &user.Role, &name, &nonce, &skills, &bio,
		&resumeHash, &image, &social, &prefs, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return user, err
	}

	user.WalletAddress = walletAddr.String
	user.Email = email.String
	user.Name = name.String
	user.Nonce = nonce.String
	user.Bio = bio.String
	user.ResumeIpfsHash = resumeHash.String
	user.ProfileImage = image.String
	if skills.String != "" {
		_ = json.Unmarshal([]byte(skills.String), &user.Skills)
	}
	if social.String != "" {
		_ = json.Unmarshal([]byte(social.String), &user.SocialLinks)
	}
	if prefs.String != "" {
		_ = json.Unmarshal([]byte(prefs.String), &user.Preferences)
	}
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Upstream("loading user", err)
	}
	return user, nil
}

// GetUserByWallet retrieves a single user by their wallet address.
func (s *UserService) GetUserByWallet(ctx context.Context, walletAddress string) (models.User, error) {
	addr := wallet.NormalizeAddress(walletAddress)
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE wallet_address = ?", addr)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, apperr.Upstream("loading user", err)
	}
	return user, nil
}

// ListUsers retrieves all users, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users"
	var args []interface{}
	if role != "" {
		query += " WHERE role = ?"
		args = append(args, role)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Upstream("listing users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Upstream("scanning user", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser applies a profile patch and returns the updated record.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch UserUpdate) (models.User, error) {
	var sets []string
	var args []interface{}

	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Email != nil {
		add("email", strings.ToLower(strings.TrimSpace(*patch.Email)))
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.ProfileImage != nil {
		add("profile_image", *patch.ProfileImage)
	}
	if patch.Skills != nil {
		data, _ := json.Marshal(*patch.Skills)
		add("skills_json", string(data))
	}
	if patch.SocialLinks != nil {
		data, _ := json.Marshal(*patch.SocialLinks)
		add("social_links_json", string(data))
	}
	if patch.Preferences != nil {
		data, _ := json.Marshal(*patch.Preferences)
		add("preferences_json", string(data))
	}

	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return models.User{}, apperr.Upstream("updating user", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.User{}, apperr.NotFound("user not found")
		}
	}
	return s.GetUserByID(ctx, id)
}

// SetResumeHash records the IPFS hash of a freshly pinned resume.
func (s *UserService) SetResumeHash(ctx context.Context, id, ipfsHash string) (models.User, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET resume_ipfs_hash = ?, updated_at = ? WHERE id = ?",
		ipfsHash, time.Now().UTC(), id,
	)
	if err != nil {
		return models.User{}, apperr.Upstream("updating resume hash", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, apperr.NotFound("user not found")
	}
	return s.GetUserByID(ctx, id)
}
