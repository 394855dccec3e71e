package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

type ProposeFriendshipRequest struct {
	ToUser string `json:"to_user"`
}

type FriendRequestResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	Request        *models.FriendRequest `json:"request,omitempty"`
	AlreadyFriends bool                  `json:"already_friends,omitempty"`
}

type FriendRequestListResponse struct {
	Success  bool                   `json:"success"`
	Requests []models.FriendRequest `json:"requests"`
	Total    int                    `json:"total"`
}

type FriendListResponse struct {
	Success bool          `json:"success"`
	Friends []models.User `json:"friends"`
	Total   int           `json:"total"`
}

// ProposeFriendship sends a friend request to another user. Proposing twice
// is idempotent; proposing to someone who rejected you earlier revives the
// same record instead of creating a second one.
func ProposeFriendship(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	var req ProposeFriendshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	toUser, err := uuid.Parse(req.ToUser)
	if err != nil {
		writeError(w, apierror.Validation("to_user must be a valid user ID"))
		return
	}

	result, err := services.ProposeFriendship(r.Context(), actor, toUser)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Friend request already pending"
	status := http.StatusOK
	if result.Created {
		message = "Friend request sent"
		status = http.StatusCreated
	} else if result.AlreadyFriends {
		message = "You are already friends"
	}

	writeJSON(w, status, FriendRequestResponse{
		Success:        true,
		Message:        message,
		Request:        &result.Request,
		AlreadyFriends: result.AlreadyFriends,
	})
}

// AcceptFriendRequest accepts a pending request addressed to the caller.
func AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	respondToFriendRequest(w, r, services.AcceptFriendRequest, "Friend request accepted")
}

// RejectFriendRequest rejects a pending request addressed to the caller.
func RejectFriendRequest(w http.ResponseWriter, r *http.Request) {
	respondToFriendRequest(w, r, services.RejectFriendRequest, "Friend request rejected")
}

func respondToFriendRequest(
	w http.ResponseWriter,
	r *http.Request,
	transition func(ctx context.Context, requestID, actor uuid.UUID) (*models.FriendRequest, error),
	message string,
) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid friend request ID"))
		return
	}

	req, err := transition(r.Context(), requestID, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestResponse{
		Success: true,
		Message: message,
		Request: req,
	})
}

// ListFriendRequests returns the caller's incoming (default) or outgoing
// requests, optionally filtered by status.
func ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = "incoming"
	}
	if direction != "incoming" && direction != "outgoing" {
		writeError(w, apierror.Validation("direction must be incoming or outgoing"))
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", models.FriendRequestPending, models.FriendRequestAccepted, models.FriendRequestRejected:
	default:
		writeError(w, apierror.Validation("Unknown status filter"))
		return
	}

	requests, err := services.ListFriendRequests(r.Context(), actor, direction, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{
		Success:  true,
		Requests: requests,
		Total:    len(requests),
	})
}

// ListFriends returns everyone the caller is friends with.
func ListFriends(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	friends, err := services.Friends(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendListResponse{
		Success: true,
		Friends: friends,
		Total:   len(friends),
	})
}

// Unfriend removes the friendship between the caller and another user.
func Unfriend(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	otherID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid user ID"))
		return
	}

	if err := services.Unfriend(r.Context(), actor, otherID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Unfriended"})
}
