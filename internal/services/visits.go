package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

// MediaInput is one attachment supplied with a check-in. Items without an
// image URL are skipped rather than failing the whole batch.
type MediaInput struct {
	ImageURL    string `json:"image_url"`
	Description string `json:"description,omitempty"`
}

// VisitResult is the contract every RecordVisit call reports back.
type VisitResult struct {
	Visit        models.Visit
	LocationName string
	FirstVisit   bool
	PointsEarned int
	TotalPoints  int
	Images       []models.Image
}

// RecordVisit records a check-in at a location. The first visit to a given
// location creates the visit row and credits the location's points to the
// user's balance in one transaction; repeat visits award nothing but still
// attach any supplied media to the existing visit.
func RecordVisit(ctx context.Context, userID, locationID uuid.UUID, note string, media []MediaInput) (*VisitResult, error) {
	tx, err := database.PostgresDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locationName string
	var locationPoints int
	err = tx.QueryRowContext(ctx,
		`SELECT name, points FROM locations WHERE id = $1`, locationID).
		Scan(&locationName, &locationPoints)
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("Location not found")
	}
	if err != nil {
		return nil, err
	}

	result := &VisitResult{LocationName: locationName}
	visit := models.Visit{
		ID:         uuid.New(),
		UserID:     userID,
		LocationID: locationID,
		VisitedAt:  time.Now(),
		Note:       note,
	}

	// The unique constraint on (user_id, location_id) decides first-vs-repeat
	// atomically, even when two check-ins race.
	var insertedID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO visits (id, user_id, location_id, visited_at, note)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, location_id) DO NOTHING
		RETURNING id
	`, visit.ID, visit.UserID, visit.LocationID, visit.VisitedAt, visit.Note).Scan(&insertedID)

	switch {
	case err == sql.ErrNoRows:
		// Already visited: load the existing visit and current balance,
		// award nothing.
		err = tx.QueryRowContext(ctx, `
			SELECT id, visited_at, note FROM visits
			WHERE user_id = $1 AND location_id = $2
		`, userID, locationID).Scan(&visit.ID, &visit.VisitedAt, &visit.Note)
		if err != nil {
			return nil, err
		}
		err = tx.QueryRowContext(ctx,
			`SELECT points FROM users WHERE id = $1`, userID).Scan(&result.TotalPoints)
		if err == sql.ErrNoRows {
			return nil, apierror.NotFound("User not found")
		}
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		// First visit: credit the balance inside the same transaction so the
		// visit row and the new balance commit together or not at all.
		result.FirstVisit = true
		result.PointsEarned = locationPoints
		err = tx.QueryRowContext(ctx, `
			UPDATE users SET points = points + $1, updated_at = $2
			WHERE id = $3
			RETURNING points
		`, locationPoints, time.Now(), userID).Scan(&result.TotalPoints)
		if err == sql.ErrNoRows {
			return nil, apierror.NotFound("User not found")
		}
		if err != nil {
			return nil, err
		}
	}

	result.Images, err = insertImages(ctx, tx, visit.ID, media)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	visit.Images = result.Images
	result.Visit = visit
	return result, nil
}

// insertImages attaches the supplied media to a visit. Items lacking an
// image URL are silently skipped.
func insertImages(ctx context.Context, tx *sql.Tx, visitID uuid.UUID, media []MediaInput) ([]models.Image, error) {
	images := []models.Image{}
	for _, m := range media {
		url := strings.TrimSpace(m.ImageURL)
		if url == "" {
			continue
		}
		img := models.Image{
			ID:          uuid.New(),
			VisitID:     visitID,
			CreatedAt:   time.Now(),
			Description: m.Description,
			ImageURL:    url,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO images (id, created_at, visit_id, description, image_url, likes)
			VALUES ($1, $2, $3, $4, $5, 0)
		`, img.ID, img.CreatedAt, img.VisitID, img.Description, img.ImageURL)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// ListVisits returns a user's visits, newest first, with images attached.
func ListVisits(ctx context.Context, userID uuid.UUID) ([]models.Visit, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, user_id, location_id, visited_at, note
		FROM visits WHERE user_id = $1
		ORDER BY visited_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visits := []models.Visit{}
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.UserID, &v.LocationID, &v.VisitedAt, &v.Note); err != nil {
			return nil, err
		}
		v.Images = []models.Image{}
		index[v.ID] = len(visits)
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(visits) == 0 {
		return visits, nil
	}

	imgRows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT i.id, i.visit_id, i.created_at, i.description, i.image_url, i.likes
		FROM images i
		JOIN visits v ON v.id = i.visit_id
		WHERE v.user_id = $1
		ORDER BY i.created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var img models.Image
		if err := imgRows.Scan(&img.ID, &img.VisitID, &img.CreatedAt, &img.Description, &img.ImageURL, &img.Likes); err != nil {
			return nil, err
		}
		if i, ok := index[img.VisitID]; ok {
			visits[i].Images = append(visits[i].Images, img)
		}
	}
	return visits, imgRows.Err()
}

// GetVisit loads one visit with its images.
func GetVisit(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	var v models.Visit
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, user_id, location_id, visited_at, note FROM visits WHERE id = $1
	`, id).Scan(&v.ID, &v.UserID, &v.LocationID, &v.VisitedAt, &v.Note)
	if err == sql.ErrNoRows {
		return nil, apierror.NotFound("Visit not found")
	}
	if err != nil {
		return nil, err
	}

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, visit_id, created_at, description, image_url, likes
		FROM images WHERE visit_id = $1 ORDER BY created_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	v.Images = []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.VisitID, &img.CreatedAt, &img.Description, &img.ImageURL, &img.Likes); err != nil {
			return nil, err
		}
		v.Images = append(v.Images, img)
	}
	return &v, rows.Err()
}

// DeleteVisit removes a visit record; its images cascade. The points earned
// from the visit are not clawed back.
func DeleteVisit(ctx context.Context, id uuid.UUID) error {
	res, err := database.PostgresDB.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierror.NotFound("Visit not found")
	}
	return nil
}

// LikeImage bumps an image's like counter and returns the new count.
func LikeImage(ctx context.Context, imageID uuid.UUID) (int, error) {
	var likes int
	err := database.PostgresDB.QueryRowContext(ctx, `
		UPDATE images SET likes = likes + 1 WHERE id = $1 RETURNING likes
	`, imageID).Scan(&likes)
	if err == sql.ErrNoRows {
		return 0, apierror.NotFound("Image not found")
	}
	if err != nil {
		return 0, err
	}
	return likes, nil
}
