package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/maplequest/maplequest-backend/internal/services"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

type FeedResponse struct {
	Success    bool                `json:"success"`
	Activities []services.Activity `json:"activities"`
	HasMore    bool                `json:"has_more"`
}

// GetFeed returns recent first-visit activities from the caller and their
// friends, newest first. Pagination via ?before=<RFC3339>&limit=<n>.
func GetFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireAuth(r)
	if !ok {
		writeError(w, apierror.ErrUnauthorized)
		return
	}

	friendIDs, err := services.FriendIDs(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}

	userIDs := make([]string, 0, len(friendIDs)+1)
	userIDs = append(userIDs, actor.String())
	for _, id := range friendIDs {
		userIDs = append(userIDs, id.String())
	}

	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, apierror.Validation("before must be an RFC3339 timestamp"))
			return
		}
		before = &t
	}

	limit := int64(50)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, apierror.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	activities, hasMore, err := services.LoadActivities(r.Context(), userIDs, before, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if activities == nil {
		activities = []services.Activity{}
	}

	writeJSON(w, http.StatusOK, FeedResponse{
		Success:    true,
		Activities: activities,
		HasMore:    hasMore,
	})
}
