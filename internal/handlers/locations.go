package handlers

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

type LocationListResponse struct {
	Success   bool              `json:"success"`
	Locations []models.Location `json:"locations"`
	Total     int               `json:"total"`
}

type LocationResponse struct {
	Success  bool             `json:"success"`
	Location *models.Location `json:"location,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// ListLocations returns the landmark catalog. Public.
func ListLocations(w http.ResponseWriter, r *http.Request) {
	rows, err := database.PostgresDB.QueryContext(r.Context(), `
		SELECT id, created_at, name, latitude, longitude, description, points, default_image_url
		FROM locations ORDER BY name
	`)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rows.Close()

	locations := []models.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			writeError(w, err)
			return
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LocationListResponse{
		Success:   true,
		Locations: locations,
		Total:     len(locations),
	})
}

// GetLocation returns a single landmark. Public.
func GetLocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.Validation("Invalid location ID"))
		return
	}

	var loc models.Location
	var imageURL sql.NullString
	err = database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT id, created_at, name, latitude, longitude, description, points, default_image_url
		FROM locations WHERE id = $1
	`, id).Scan(&loc.ID, &loc.CreatedAt, &loc.Name, &loc.Latitude, &loc.Longitude,
		&loc.Description, &loc.Points, &imageURL)
	if err == sql.ErrNoRows {
		writeError(w, apierror.NotFound("Location not found"))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	loc.DefaultImageURL = imageURL.String

	writeJSON(w, http.StatusOK, LocationResponse{Success: true, Location: &loc})
}

type locationScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocation(row locationScanner) (*models.Location, error) {
	var loc models.Location
	var imageURL sql.NullString
	if err := row.Scan(&loc.ID, &loc.CreatedAt, &loc.Name, &loc.Latitude, &loc.Longitude,
		&loc.Description, &loc.Points, &imageURL); err != nil {
		return nil, err
	}
	loc.DefaultImageURL = imageURL.String
	return &loc, nil
}
