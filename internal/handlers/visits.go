package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
	"github.com/maplequest/maplequest-backend/pkg/utils"
)

type RecordVisitRequest struct {
	LocationID string                `json:"location_id"`
	Note       string                `json:"note,omitempty"`
	Media      []services.MediaInput `json:"media,omitempty"`
}

type RecordVisitResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	FirstVisit   bool           `json:"first_visit"`
	PointsEarned int            `json:"points_earned"`
	TotalPoints  int            `json:"total_points"`
	Visit        *models.Visit  `json:"visit,omitempty"`
	Images       []models.Image `json:"images"`
}

type VisitListResponse struct {
	Success bool           `json:"success"`
	Visits  []models.Visit `json:"visits"`
	Total   int            `json:"total"`
}

type VisitResponse struct {
	Success bool          `json:"success"`
	Visit   *models.Visit `json:"visit,omitempty"`
}

type LikeImageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Likes   int    `json:"likes"`
}

// RecordVisit checks the caller in at a location. The first visit credits
// the location's points; repeat visits only attach media.
func RecordVisit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	var req RecordVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	locationID, err := uuid.Parse(req.LocationID)
	if err != nil {
		writeError(w, apierror.Validation("location_id must be a valid location ID"))
		return
	}
	if len(req.Note) > utils.MaxNoteLength {
		writeError(w, apierror.Validation("Note is too long"))
		return
	}

	result, err := services.RecordVisit(r.Context(), actor, locationID, req.Note, req.Media)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Already visited"
	status := http.StatusOK
	if result.FirstVisit {
		message = "Visit recorded"
		status = http.StatusCreated
		publishVisitActivity(actor, result)
	}

	writeJSON(w, status, RecordVisitResponse{
		Success:      true,
		Message:      message,
		FirstVisit:   result.FirstVisit,
		PointsEarned: result.PointsEarned,
		TotalPoints:  result.TotalPoints,
		Visit:        &result.Visit,
		Images:       result.Images,
	})
}

// publishVisitActivity records a first-time visit in the activity feed and
// broadcasts it live. Best-effort: feed failures never fail the check-in.
func publishVisitActivity(userID uuid.UUID, result *services.VisitResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	email := ""
	if user, err := services.GetUserByID(ctx, userID); err == nil {
		email = user.Email
	}

	now := time.Now().UTC()
	services.SaveActivityAsync(services.Activity{
		UserID:       userID.String(),
		UserEmail:    email,
		LocationID:   result.Visit.LocationID.String(),
		LocationName: result.LocationName,
		PointsEarned: result.PointsEarned,
		Timestamp:    now,
	})

	event := services.FeedEvent{
		Type:         "visit",
		UserID:       userID.String(),
		UserEmail:    email,
		LocationID:   result.Visit.LocationID.String(),
		LocationName: result.LocationName,
		PointsEarned: result.PointsEarned,
		Timestamp:    now,
	}
	if err := services.PublishFeedEvent(ctx, event); err != nil {
		log.Printf("failed to publish visit activity: %v", err)
	}
}

// ListVisits returns the caller's visit history with images.
func ListVisits(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	visits, err := services.ListVisits(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, VisitListResponse{
		Success: true,
		Visits:  visits,
		Total:   len(visits),
	})
}

// GetVisit returns one of the caller's visits with its images.
func GetVisit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid visit ID"))
		return
	}

	visit, err := services.GetVisit(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if visit.UserID != actor {
		writeError(w, apierror.Forbidden("This visit belongs to another user"))
		return
	}

	writeJSON(w, http.StatusOK, VisitResponse{Success: true, Visit: visit})
}

// LikeImage bumps the like counter on a visit photo.
func LikeImage(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAuth(r); !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid image ID"))
		return
	}

	likes, err := services.LikeImage(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LikeImageResponse{
		Success: true,
		Message: "Liked",
		Likes:   likes,
	})
}
