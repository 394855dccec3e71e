package services

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

// GetUserByID loads a user's public profile.
func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, email, phone, points
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &phone, &u.Points)
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}

// GetUserByEmail loads a user by normalized email, including the password
// hash for credential verification.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, email, password_hash, phone, points
		FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &u.PasswordHash, &phone, &u.Points)
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	return &u, nil
}
