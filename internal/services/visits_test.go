package services

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

func TestRecordVisitFirstVisitAwardsPoints(t *testing.T) {
	mock := newMockDB(t)
	userID, locationID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, points FROM locations").
		WithArgs(locationID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"name", "points"}).AddRow("Niagara Falls", 100))
	mock.ExpectQuery("INSERT INTO visits").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectQuery("UPDATE users SET points").
		WithArgs(100, sqlmock.AnyArg(), userID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(150))
	mock.ExpectExec("INSERT INTO images").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	media := []MediaInput{
		{ImageURL: "https://cdn.example.com/falls.jpg", Description: "the falls"},
		{ImageURL: "   "}, // no URL, skipped
	}
	res, err := RecordVisit(context.Background(), userID, locationID, "amazing", media)
	require.NoError(t, err)
	assert.True(t, res.FirstVisit)
	assert.Equal(t, 100, res.PointsEarned)
	assert.Equal(t, 150, res.TotalPoints)
	assert.Equal(t, "Niagara Falls", res.LocationName)
	require.Len(t, res.Images, 1)
	assert.Equal(t, "https://cdn.example.com/falls.jpg", res.Images[0].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitRepeatAwardsNothing(t *testing.T) {
	mock := newMockDB(t)
	userID, locationID := uuid.New(), uuid.New()
	existingVisit := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, points FROM locations").
		WillReturnRows(sqlmock.NewRows([]string{"name", "points"}).AddRow("Banff National Park", 120))
	// Conflict on (user_id, location_id): the insert returns no row.
	mock.ExpectQuery("INSERT INTO visits").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT id, visited_at, note FROM visits").
		WithArgs(userID.String(), locationID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "visited_at", "note"}).
			AddRow(existingVisit.String(), time.Now(), "first time"))
	mock.ExpectQuery("SELECT points FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(120))
	mock.ExpectExec("INSERT INTO images").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := RecordVisit(context.Background(), userID, locationID, "back again",
		[]MediaInput{{ImageURL: "https://cdn.example.com/lake.jpg"}})
	require.NoError(t, err)
	assert.False(t, res.FirstVisit)
	assert.Equal(t, 0, res.PointsEarned)
	assert.Equal(t, 120, res.TotalPoints)
	assert.Equal(t, existingVisit, res.Visit.ID)
	require.Len(t, res.Images, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitUnknownLocation(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name, points FROM locations").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := RecordVisit(context.Background(), uuid.New(), uuid.New(), "", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeImage(t *testing.T) {
	mock := newMockDB(t)
	imageID := uuid.New()

	mock.ExpectQuery("UPDATE images SET likes").
		WithArgs(imageID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(3))

	likes, err := LikeImage(context.Background(), imageID)
	require.NoError(t, err)
	assert.Equal(t, 3, likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikeImageMissing(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("UPDATE images SET likes").
		WillReturnError(sql.ErrNoRows)

	_, err := LikeImage(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVisit(t *testing.T) {
	mock := newMockDB(t)
	visitID := uuid.New()

	mock.ExpectExec("DELETE FROM visits").
		WithArgs(visitID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, DeleteVisit(context.Background(), visitID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteVisitMissing(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM visits").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := DeleteVisit(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
