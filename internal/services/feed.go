package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maplequest/maplequest-backend/internal/database"
)

// Activity is one feed entry: a first-time visit to a landmark. Repeat
// check-ins and friendship mutations never produce activities.
type Activity struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"user_id" json:"user_id"`
	UserEmail    string             `bson:"user_email,omitempty" json:"user_email,omitempty"`
	LocationID   string             `bson:"location_id" json:"location_id"`
	LocationName string             `bson:"location_name" json:"location_name"`
	PointsEarned int                `bson:"points_earned" json:"points_earned"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
}

// EnsureFeedIndexes configures indexes for the activities collection.
// Called on startup from main after Mongo has connected.
func EnsureFeedIndexes(ctx context.Context) error {
	col := database.MongoDB.Collection("activities")

	// Compound index on (user_id, timestamp) for per-friend feed queries.
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "timestamp", Value: -1},
		},
		Options: options.Index().SetName("idx_user_timestamp"),
	}

	_, err := col.Indexes().CreateOne(ctx, model)
	return err
}

// SaveActivityAsync persists an activity to MongoDB asynchronously. The feed
// is best-effort history; the caller must not block on it.
func SaveActivityAsync(a Activity) {
	go func(a Activity) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if a.Timestamp.IsZero() {
			a.Timestamp = time.Now().UTC()
		}

		col := database.MongoDB.Collection("activities")
		_, _ = col.InsertOne(ctx, a)
	}(a)
}

// LoadActivities returns paginated activities for a set of users (the caller
// and their friends), newest-first scrolling via timestamp + limit.
func LoadActivities(ctx context.Context, userIDs []string, before *time.Time, limit int64) ([]Activity, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	col := database.MongoDB.Collection("activities")

	filter := bson.M{
		"user_id": bson.M{"$in": userIDs},
	}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var activities []Activity
	for cur.Next(ctx) {
		var a Activity
		if err := cur.Decode(&a); err != nil {
			continue
		}
		activities = append(activities, a)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(activities)) > limit
	if hasMore {
		activities = activities[:len(activities)-1]
	}

	return activities, hasMore, nil
}
