package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
	"github.com/maplequest/maplequest-backend/pkg/utils"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
	Token   string       `json:"token,omitempty"`
}

// Signup registers a new user.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		writeError(w, apierror.Validation(err.Error()))
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, apierror.Validation(err.Error()))
		return
	}
	if err := utils.ValidatePhone(req.Phone); err != nil {
		writeError(w, apierror.Validation(err.Error()))
		return
	}

	email := utils.NormalizeEmail(req.Email)

	// Check if user already exists
	var existingEmail string
	err := database.PostgresDB.QueryRow("SELECT email FROM users WHERE email = $1", email).Scan(&existingEmail)
	if err == nil {
		writeError(w, apierror.Conflict("A user with this email already exists"))
		return
	} else if err != sql.ErrNoRows {
		writeError(w, err)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	user := models.User{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Points:    0,
	}

	_, err = database.PostgresDB.Exec(`
		INSERT INTO users (id, created_at, updated_at, email, password_hash, phone, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.CreatedAt, user.UpdatedAt, user.Email, hashedPassword, user.Phone, user.Points)
	if err != nil {
		// Unique constraint race on email; anything else is a real failure.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			writeError(w, apierror.Conflict("A user with this email already exists"))
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User created successfully",
		User:    &user,
	})
}

// Signin authenticates a user and issues a session token. Unknown email and
// wrong password produce the identical generic failure so the response never
// reveals whether an account exists.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, apierror.Validation("Email and password are required"))
		return
	}

	invalidCredentials := apierror.New("UNAUTHORIZED", "Invalid email or password", http.StatusUnauthorized)

	user, err := services.GetUserByEmail(r.Context(), utils.NormalizeEmail(req.Email))
	if err != nil {
		if apierror.From(err).Status == http.StatusNotFound {
			writeError(w, invalidCredentials)
		} else {
			writeError(w, err)
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, invalidCredentials)
		return
	}

	token, err := services.CreateSession(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// GetMe returns the authenticated user's profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	user, err := services.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "OK",
		User:    user,
	})
}

// Signout invalidates the caller's session token.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	if err := services.InvalidateSession(token); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ActionResponse{Success: true, Message: "Signed out"})
}
