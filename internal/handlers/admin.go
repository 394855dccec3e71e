package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

type AdminUserListResponse struct {
	Success bool          `json:"success"`
	Users   []models.User `json:"users"`
	Total   int           `json:"total"`
}

type AdminVisitListResponse struct {
	Success bool           `json:"success"`
	Visits  []models.Visit `json:"visits"`
	Total   int            `json:"total"`
}

type AchievementListResponse struct {
	Success      bool                 `json:"success"`
	Achievements []models.Achievement `json:"achievements"`
	Total        int                  `json:"total"`
}

type CreateLocationRequest struct {
	Name            string `json:"name"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
	Description     string `json:"description,omitempty"`
	Points          int    `json:"points"`
	DefaultImageURL string `json:"default_image_url,omitempty"`
}

type CreateAchievementRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
}

type AdjustPointsRequest struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

type AdjustPointsResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Points  int    `json:"points"`
}

// AdminListUsers lists users, optionally filtered by ?email= substring.
func AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	query := `
		SELECT id, created_at, updated_at, email, phone, points
		FROM users`
	args := []interface{}{}
	if search := strings.TrimSpace(r.URL.Query().Get("email")); search != "" {
		query += ` WHERE email ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := database.PostgresDB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var phone sql.NullString
		if err := rows.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &phone, &u.Points); err != nil {
			writeError(w, err)
			return
		}
		u.Phone = phone.String
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminUserListResponse{Success: true, Users: users, Total: len(users)})
}

// AdminDeleteUser removes a user; visits, images and friend requests cascade.
func AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid user ID"))
		return
	}

	res, err := database.PostgresDB.ExecContext(r.Context(), `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		writeError(w, apierror.NotFound("User not found"))
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "User deleted"})
}

// AdminAdjustPoints sets a user's balance to an exact value. This is the only
// write path that can lower a balance.
func AdminAdjustPoints(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	var req AdjustPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, apierror.Validation("user_id must be a valid user ID"))
		return
	}
	if req.Points < 0 {
		writeError(w, apierror.Validation("points must not be negative"))
		return
	}

	var points int
	err = database.PostgresDB.QueryRowContext(r.Context(), `
		UPDATE users SET points = $1, updated_at = $2 WHERE id = $3 RETURNING points
	`, req.Points, time.Now(), userID).Scan(&points)
	if err == sql.ErrNoRows {
		writeError(w, apierror.NotFound("User not found"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdjustPointsResponse{
		Success: true,
		Message: "Points updated",
		Points:  points,
	})
}

// AdminListFriendRequests lists friend requests, optionally filtered by
// ?status=.
func AdminListFriendRequests(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", models.FriendRequestPending, models.FriendRequestAccepted, models.FriendRequestRejected:
	default:
		writeError(w, apierror.Validation("Unknown status filter"))
		return
	}

	query := `
		SELECT id, created_at, updated_at, from_user, to_user, status
		FROM friend_requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC LIMIT 200`

	rows, err := database.PostgresDB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rows.Close()

	requests := []models.FriendRequest{}
	for rows.Next() {
		var req models.FriendRequest
		if err := rows.Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt, &req.FromUser, &req.ToUser, &req.Status); err != nil {
			writeError(w, err)
			return
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestListResponse{Success: true, Requests: requests, Total: len(requests)})
}

// AdminListVisits lists visits, optionally filtered by ?user= or ?location=.
func AdminListVisits(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	query := `
		SELECT id, user_id, location_id, visited_at, note
		FROM visits`
	args := []interface{}{}
	conditions := []string{}
	if raw := r.URL.Query().Get("user"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, apierror.Validation("user must be a valid user ID"))
			return
		}
		args = append(args, id)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if raw := r.URL.Query().Get("location"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, apierror.Validation("location must be a valid location ID"))
			return
		}
		args = append(args, id)
		conditions = append(conditions, fmt.Sprintf("location_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY visited_at DESC LIMIT 200`

	rows, err := database.PostgresDB.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rows.Close()

	visits := []models.Visit{}
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.UserID, &v.LocationID, &v.VisitedAt, &v.Note); err != nil {
			writeError(w, err)
			return
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminVisitListResponse{Success: true, Visits: visits, Total: len(visits)})
}

// AdminDeleteVisit removes a visit record; its images cascade. The user keeps
// any points the visit earned.
func AdminDeleteVisit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid visit ID"))
		return
	}

	if err := services.DeleteVisit(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Visit deleted"})
}

// AdminCreateLocation adds a landmark to the catalog.
func AdminCreateLocation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apierror.Validation("Location name is required"))
		return
	}
	if req.Points < 0 {
		writeError(w, apierror.Validation("points must not be negative"))
		return
	}

	loc := models.Location{
		ID:              uuid.New(),
		CreatedAt:       time.Now(),
		Name:            strings.TrimSpace(req.Name),
		Latitude:        strings.TrimSpace(req.Latitude),
		Longitude:       strings.TrimSpace(req.Longitude),
		Description:     req.Description,
		Points:          req.Points,
		DefaultImageURL: req.DefaultImageURL,
	}

	_, err := database.PostgresDB.ExecContext(r.Context(), `
		INSERT INTO locations (id, created_at, name, latitude, longitude, description, points, default_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
	`, loc.ID, loc.CreatedAt, loc.Name, loc.Latitude, loc.Longitude, loc.Description, loc.Points, loc.DefaultImageURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, LocationResponse{Success: true, Location: &loc, Message: "Location created"})
}

// AdminUpdateLocation updates a landmark's catalog entry.
func AdminUpdateLocation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid location ID"))
		return
	}

	var req CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apierror.Validation("Location name is required"))
		return
	}
	if req.Points < 0 {
		writeError(w, apierror.Validation("points must not be negative"))
		return
	}

	res, err := database.PostgresDB.ExecContext(r.Context(), `
		UPDATE locations
		SET name = $1, latitude = $2, longitude = $3, description = $4, points = $5, default_image_url = NULLIF($6, '')
		WHERE id = $7
	`, strings.TrimSpace(req.Name), strings.TrimSpace(req.Latitude), strings.TrimSpace(req.Longitude),
		req.Description, req.Points, req.DefaultImageURL, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		writeError(w, apierror.NotFound("Location not found"))
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Location updated"})
}

// AdminDeleteLocation removes a landmark; its visits and images cascade.
func AdminDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid location ID"))
		return
	}

	res, err := database.PostgresDB.ExecContext(r.Context(), `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		writeError(w, apierror.NotFound("Location not found"))
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Location deleted"})
}

// AdminCreateAchievement adds an achievement to the catalog.
func AdminCreateAchievement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	var req CreateAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, apierror.Validation("Achievement name is required"))
		return
	}

	a := models.Achievement{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Points:      req.Points,
	}

	_, err := database.PostgresDB.ExecContext(r.Context(), `
		INSERT INTO achievements (id, name, description, points)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.Name, a.Description, a.Points)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success     bool               `json:"success"`
		Message     string             `json:"message"`
		Achievement models.Achievement `json:"achievement"`
	}{true, "Achievement created", a})
}

// AdminDeleteAchievement removes an achievement from the catalog.
func AdminDeleteAchievement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid achievement ID"))
		return
	}

	res, err := database.PostgresDB.ExecContext(r.Context(), `DELETE FROM achievements WHERE id = $1`, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		writeError(w, apierror.NotFound("Achievement not found"))
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Achievement deleted"})
}

// ListAchievements returns the achievement catalog. Public.
func ListAchievements(w http.ResponseWriter, r *http.Request) {
	rows, err := database.PostgresDB.QueryContext(r.Context(), `
		SELECT id, name, description, points FROM achievements ORDER BY points DESC
	`)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Points); err != nil {
			writeError(w, err)
			return
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AchievementListResponse{Success: true, Achievements: achievements, Total: len(achievements)})
}
