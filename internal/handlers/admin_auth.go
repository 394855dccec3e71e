package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
	"github.com/maplequest/maplequest-backend/pkg/utils"
)

type AdminSigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminSigninResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// AdminSignin authenticates a console admin. Admin accounts are created
// directly in the database; there is no admin signup endpoint.
func AdminSignin(w http.ResponseWriter, r *http.Request) {
	var req AdminSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierror.Validation("Invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, apierror.Validation("Email and password are required"))
		return
	}

	invalidCredentials := apierror.New("UNAUTHORIZED", "Invalid email or password", http.StatusUnauthorized)

	var adminID uuid.UUID
	var passwordHash string
	err := database.PostgresDB.QueryRowContext(r.Context(),
		`SELECT id, password_hash FROM admins WHERE email = $1`,
		utils.NormalizeEmail(req.Email)).Scan(&adminID, &passwordHash)
	if err == sql.ErrNoRows {
		writeError(w, invalidCredentials)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	valid, err := utils.VerifyPassword(req.Password, passwordHash)
	if err != nil || !valid {
		writeError(w, invalidCredentials)
		return
	}

	token, err := services.CreateAdminSession(adminID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AdminSigninResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
	})
}
