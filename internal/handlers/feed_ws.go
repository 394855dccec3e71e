package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/maplequest/maplequest-backend/internal/services"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS middleware for the HTTP handshake.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedWebSocket upgrades to a WebSocket that streams live visit activities
// from the caller's friends (and the caller). Authentication uses the
// session token (Authorization: Bearer <token>, or ?token= for browser
// clients that cannot set headers on WebSocket handshakes).
func FeedWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	// The friend set is captured at connect time; reconnect to pick up
	// newly accepted friendships.
	friendIDs, err := services.FriendIDs(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load friends", http.StatusInternalServerError)
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed websocket upgrade failed: %v", err)
		return
	}

	services.RegisterFeedConnection(userID, conn, friendIDs)
	defer func() {
		services.UnregisterFeedConnection(userID)
		conn.Close()
	}()

	// The feed is push-only; the read loop just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
