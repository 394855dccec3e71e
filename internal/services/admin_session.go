package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
)

const (
	// AdminSessionDuration is 7 days
	AdminSessionDuration = 7 * 24 * time.Hour
	// AdminSessionKeyPrefix is the Redis key prefix for admin sessions
	AdminSessionKeyPrefix = "admin_session:"
	// AdminToSessionKeyPrefix is the Redis key prefix for admin->session mapping
	AdminToSessionKeyPrefix = "admin_to_session:"
)

// CreateAdminSession issues a session token for a console admin. Admin
// sessions live in a separate key space from user sessions.
func CreateAdminSession(adminID uuid.UUID) (string, error) {
	_ = InvalidateAdminSessions(adminID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	ctx := context.Background()
	sessionKey := AdminSessionKeyPrefix + sessionToken
	adminToSessionKey := AdminToSessionKeyPrefix + adminID.String()

	if err := database.RedisClient.Set(ctx, sessionKey, adminID.String(), AdminSessionDuration).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, adminToSessionKey, sessionToken, AdminSessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateAdminSession resolves an admin bearer token to an admin ID.
func ValidateAdminSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	adminIDStr, err := database.RedisClient.Get(ctx, AdminSessionKeyPrefix+sessionToken).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	adminID, err := uuid.Parse(adminIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return adminID, true, nil
}

// InvalidateAdminSessions drops the admin's current session, if any.
func InvalidateAdminSessions(adminID uuid.UUID) error {
	ctx := context.Background()
	adminToSessionKey := AdminToSessionKeyPrefix + adminID.String()

	sessionToken, err := database.RedisClient.Get(ctx, adminToSessionKey).Result()
	if err == nil && sessionToken != "" {
		database.RedisClient.Del(ctx, AdminSessionKeyPrefix+sessionToken)
	}

	return database.RedisClient.Del(ctx, adminToSessionKey).Err()
}
