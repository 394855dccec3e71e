package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

// ProposeResult reports what ProposeFriendship did. Created is false when an
// existing record was returned or revived.
type ProposeResult struct {
	Request        models.FriendRequest
	Created        bool
	AlreadyFriends bool
}

// ProposeFriendship sends (or re-sends) a friend request from one user to
// another. The lookup covers both orderings of the pair so at most one record
// ever exists between two users:
//
//   - no record       -> create pending
//   - pending         -> return existing unchanged
//   - accepted        -> already friends, no mutation
//   - rejected        -> revive the same record to pending, the proposer and
//     target reassigned to the new direction
func ProposeFriendship(ctx context.Context, from, to uuid.UUID) (*ProposeResult, error) {
	if from == to {
		return nil, apierror.Validation("You cannot send a friend request to yourself")
	}

	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, to).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apierror.NotFound("User not found")
	}

	existing, err := friendRequestBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		req := models.FriendRequest{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
			FromUser:  from,
			ToUser:    to,
			Status:    models.FriendRequestPending,
		}
		_, err = database.PostgresDB.ExecContext(ctx, `
			INSERT INTO friend_requests (id, created_at, updated_at, from_user, to_user, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, req.ID, req.CreatedAt, req.UpdatedAt, req.FromUser, req.ToUser, req.Status)
		if err != nil {
			// A concurrent proposal for the same pair won the insert; treat
			// ours as the idempotent duplicate and return the winner's row.
			if isUniqueViolation(err) {
				raced, rerr := friendRequestBetween(ctx, from, to)
				if rerr != nil {
					return nil, rerr
				}
				if raced != nil {
					return &ProposeResult{Request: *raced, AlreadyFriends: raced.Status == models.FriendRequestAccepted}, nil
				}
			}
			return nil, err
		}
		return &ProposeResult{Request: req, Created: true}, nil
	}

	switch existing.Status {
	case models.FriendRequestPending:
		return &ProposeResult{Request: *existing}, nil
	case models.FriendRequestAccepted:
		return &ProposeResult{Request: *existing, AlreadyFriends: true}, nil
	case models.FriendRequestRejected:
		// Re-proposal: the same row flips back to pending with the new
		// proposer as sender. The original direction is overwritten.
		now := time.Now()
		_, err = database.PostgresDB.ExecContext(ctx, `
			UPDATE friend_requests SET from_user = $1, to_user = $2, status = $3, updated_at = $4
			WHERE id = $5
		`, from, to, models.FriendRequestPending, now, existing.ID)
		if err != nil {
			return nil, err
		}
		existing.FromUser = from
		existing.ToUser = to
		existing.Status = models.FriendRequestPending
		existing.UpdatedAt = now
		return &ProposeResult{Request: *existing}, nil
	}

	return nil, apierror.ErrInternal
}

// AcceptFriendRequest moves a pending request to accepted. Only the recipient
// may accept. Accepting an already-accepted request is a no-op; a rejected
// request must be re-proposed first.
func AcceptFriendRequest(ctx context.Context, requestID, actor uuid.UUID) (*models.FriendRequest, error) {
	req, err := GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUser != actor {
		return nil, apierror.Forbidden("Only the recipient can accept a friend request")
	}

	switch req.Status {
	case models.FriendRequestAccepted:
		return req, nil
	case models.FriendRequestRejected:
		return nil, apierror.Conflict("This request was rejected and must be proposed again")
	}

	return updateFriendRequestStatus(ctx, req, models.FriendRequestAccepted)
}

// RejectFriendRequest moves a pending request to rejected. Only the recipient
// may reject. An accepted request cannot be rejected; use Unfriend.
func RejectFriendRequest(ctx context.Context, requestID, actor uuid.UUID) (*models.FriendRequest, error) {
	req, err := GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToUser != actor {
		return nil, apierror.Forbidden("Only the recipient can reject a friend request")
	}

	switch req.Status {
	case models.FriendRequestRejected:
		return req, nil
	case models.FriendRequestAccepted:
		return nil, apierror.Conflict("You are already friends; unfriend instead")
	}

	return updateFriendRequestStatus(ctx, req, models.FriendRequestRejected)
}

// Friends returns everyone connected to userID by an accepted request in
// either direction. Computed by query on every call, never materialized.
func Friends(ctx context.Context, userID uuid.UUID) ([]models.User, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT u.id, u.created_at, u.updated_at, u.email, u.phone, u.points
		FROM users u
		JOIN friend_requests fr
			ON fr.status = 'accepted'
			AND ((fr.from_user = $1 AND fr.to_user = u.id) OR (fr.to_user = $1 AND fr.from_user = u.id))
		ORDER BY u.email
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		var u models.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &phone, &u.Points); err != nil {
			return nil, err
		}
		u.Phone = phone.String
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

// FriendIDs returns just the IDs of a user's friends (used by the feed).
func FriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT CASE WHEN from_user = $1 THEN to_user ELSE from_user END
		FROM friend_requests
		WHERE status = 'accepted' AND (from_user = $1 OR to_user = $1)
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Unfriend deletes any accepted request between the two users, in either
// direction. Pending and rejected records are left alone.
func Unfriend(ctx context.Context, a, b uuid.UUID) error {
	res, err := database.PostgresDB.ExecContext(ctx, `
		DELETE FROM friend_requests
		WHERE status = 'accepted'
		AND ((from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1))
	`, a, b)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierror.NotFound("You are not friends with this user")
	}
	return nil
}

// GetFriendRequest loads a single friend request by ID.
func GetFriendRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, from_user, to_user, status
		FROM friend_requests WHERE id = $1
	`, id).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt, &req.FromUser, &req.ToUser, &req.Status)
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("Friend request not found")
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListFriendRequests returns a user's incoming or outgoing requests,
// optionally filtered by status.
func ListFriendRequests(ctx context.Context, userID uuid.UUID, direction, status string) ([]models.FriendRequest, error) {
	column := "to_user"
	if direction == "outgoing" {
		column = "from_user"
	}

	query := `
		SELECT id, created_at, updated_at, from_user, to_user, status
		FROM friend_requests WHERE ` + column + ` = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := database.PostgresDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt, &req.FromUser, &req.ToUser, &req.Status); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// friendRequestBetween finds the record for the unordered pair (a, b), if any.
func friendRequestBetween(ctx context.Context, a, b uuid.UUID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, from_user, to_user, status
		FROM friend_requests
		WHERE (from_user = $1 AND to_user = $2) OR (from_user = $2 AND to_user = $1)
	`, a, b).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt, &req.FromUser, &req.ToUser, &req.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func updateFriendRequestStatus(ctx context.Context, req *models.FriendRequest, status string) (*models.FriendRequest, error) {
	now := time.Now()
	_, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE friend_requests SET status = $1, updated_at = $2 WHERE id = $3
	`, status, now, req.ID)
	if err != nil {
		return nil, err
	}
	req.Status = status
	req.UpdatedAt = now
	return req, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
