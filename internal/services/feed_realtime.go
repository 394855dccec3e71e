package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
)

// FeedChannel is the Redis channel all visit activities are published on.
const FeedChannel = "feed:activity"

// FeedEvent is the payload broadcast over Redis and WebSocket when a user
// visits a landmark for the first time.
type FeedEvent struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	UserEmail    string    `json:"user_email,omitempty"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	PointsEarned int       `json:"points_earned"`
	Timestamp    time.Time `json:"timestamp"`
}

// FeedConn is the minimal interface our WebSocket implementation must satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// FeedConnection tracks one user's WebSocket connection and the set of users
// (their friends plus themselves) whose activities they should receive. The
// set is captured at connect time.
type FeedConnection struct {
	UserID  uuid.UUID
	Conn    FeedConn
	watches map[string]struct{}
	mu      sync.RWMutex

	// Serializes writes: gorilla/websocket allows at most one concurrent
	// writer per connection.
	writeMu sync.Mutex
}

// send writes one event to the connection. Writes are serialized so
// closely spaced events never hit the socket concurrently.
func (fc *FeedConnection) send(event FeedEvent) {
	fc.writeMu.Lock()
	defer fc.writeMu.Unlock()
	if err := fc.Conn.WriteJSON(event); err != nil {
		log.Printf("error writing feed event to websocket: %v", err)
	}
}

// Watches reports whether this connection should receive events from userID.
func (fc *FeedConnection) Watches(userID string) bool {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	_, ok := fc.watches[userID]
	return ok
}

type feedHub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*FeedConnection
}

var (
	hub              = &feedHub{connections: make(map[uuid.UUID]*FeedConnection)}
	feedRedisStarted sync.Once
)

// RegisterFeedConnection registers or replaces a user's feed connection.
// friendIDs is the user's current friend set; the user always watches
// themselves as well.
func RegisterFeedConnection(userID uuid.UUID, conn FeedConn, friendIDs []uuid.UUID) *FeedConnection {
	watches := make(map[string]struct{}, len(friendIDs)+1)
	watches[userID.String()] = struct{}{}
	for _, id := range friendIDs {
		watches[id.String()] = struct{}{}
	}

	fc := &FeedConnection{
		UserID:  userID,
		Conn:    conn,
		watches: watches,
	}

	hub.mu.Lock()
	hub.connections[userID] = fc
	hub.mu.Unlock()

	return fc
}

// UnregisterFeedConnection removes a user's feed connection.
func UnregisterFeedConnection(userID uuid.UUID) {
	hub.mu.Lock()
	delete(hub.connections, userID)
	hub.mu.Unlock()
}

// FanOutFeedEvent sends an event to every local connection watching the
// event's author.
func FanOutFeedEvent(event FeedEvent) {
	if event.UserID == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for _, fc := range hub.connections {
		if !fc.Watches(event.UserID) {
			continue
		}

		// Non-blocking best-effort send.
		go fc.send(event)
	}
}

// StartRedisFeedSubscriber ensures a single shared Redis listener per instance.
func StartRedisFeedSubscriber(ctx context.Context) {
	feedRedisStarted.Do(func() {
		go runRedisFeedSubscriber(ctx)
	})
}

func runRedisFeedSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; feed subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.Subscribe(ctx, FeedChannel)
			defer pubsub.Close()

			log.Printf("✅ Feed Redis subscriber started (channel: %s)", FeedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}

				FanOutFeedEvent(event)
			}
		}()
	}
}

// PublishFeedEvent publishes an event to Redis; called after a first-time
// visit commits.
func PublishFeedEvent(ctx context.Context, event FeedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Type == "" {
		event.Type = "visit"
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, FeedChannel, data).Err()
}
