package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

// ErrorResponse is the uniform failure body for every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ActionResponse is the generic success body for mutations with no payload.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

// writeError maps an error to its APIError classification and writes the
// uniform failure body. Unclassified errors become a 500 with no detail.
func writeError(w http.ResponseWriter, err error) {
	apiErr := apierror.From(err)
	if apiErr == apierror.ErrInternal {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, apiErr.Status, ErrorResponse{
		Success: false,
		Code:    apiErr.Code,
		Message: apiErr.Message,
	})
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// requireAuth validates the session and returns the authenticated user's ID.
// Returns (uuid.Nil, false) if not authenticated.
func requireAuth(r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return uuid.Nil, false
	}
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return uuid.Nil, false
	}
	return userID, true
}

// requireAdminAuth validates an admin session token.
func requireAdminAuth(r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return uuid.Nil, false
	}
	adminID, ok, err := services.ValidateAdminSession(token)
	if err != nil || !ok {
		return uuid.Nil, false
	}
	return adminID, true
}
