package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never returned in JSON
	Phone        string `json:"phone,omitempty"`
	Points       int    `json:"points"`
}
