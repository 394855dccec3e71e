package models

import (
	"time"

	"github.com/google/uuid"
)

// Visit records that a user has been to a location. At most one visit
// exists per (user, location) pair; repeat check-ins attach images to the
// existing visit instead of creating a new one.
type Visit struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	LocationID uuid.UUID `json:"location_id"`
	VisitedAt  time.Time `json:"visited_at"`
	Note       string    `json:"note,omitempty"`

	Images []Image `json:"images,omitempty"`
}

// Image is a photo attached to a visit.
type Image struct {
	ID        uuid.UUID `json:"id"`
	VisitID   uuid.UUID `json:"visit_id"`
	CreatedAt time.Time `json:"created_at"`

	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url"`
	Likes       int    `json:"likes"`
}
