package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a visitable landmark carrying a point reward. Coordinates
// are stored as free text, matching the seed data.
type Location struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Name            string `json:"name"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
	Description     string `json:"description"`
	Points          int    `json:"points"`
	DefaultImageURL string `json:"default_image_url,omitempty"`
}
