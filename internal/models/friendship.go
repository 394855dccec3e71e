package models

import (
	"time"

	"github.com/google/uuid"
)

// Friend request statuses. A rejected request can only become pending
// again through a re-proposal; accepted and rejected never flip directly.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest is a directed proposal between two users. Friendship is
// derived: two users are friends iff an accepted request exists between
// them in either direction.
type FriendRequest struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FromUser uuid.UUID `json:"from_user"`
	ToUser   uuid.UUID `json:"to_user"`
	Status   string    `json:"status"`
}
