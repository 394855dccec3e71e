package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/pkg/utils"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	prev := database.PostgresDB
	database.PostgresDB = db
	t.Cleanup(func() {
		database.PostgresDB = prev
		db.Close()
	})
	return mock
}

func postJSON(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

// A failed sign-in must not reveal whether the account exists: unknown email
// and wrong password produce byte-identical responses.
func TestSigninGenericFailure(t *testing.T) {
	mock := newMockDB(t)

	// Unknown email
	mock.ExpectQuery("SELECT id, created_at, updated_at, email, password_hash, phone, points").
		WillReturnError(sql.ErrNoRows)
	unknownEmail := postJSON(Signin, `{"email":"nobody@example.com","password":"whatever123"}`)

	// Known email, wrong password
	hash, err := utils.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	userRow := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "email", "password_hash", "phone", "points"}).
		AddRow(uuid.New().String(), time.Now(), time.Now(), "alice@example.com", hash, nil, 50)
	mock.ExpectQuery("SELECT id, created_at, updated_at, email, password_hash, phone, points").
		WillReturnRows(userRow)
	wrongPassword := postJSON(Signin, `{"email":"alice@example.com","password":"whatever123"}`)

	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, unknownEmail.Body.String(), wrongPassword.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSigninMissingFields(t *testing.T) {
	newMockDB(t)

	rec := postJSON(Signin, `{"email":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupRejectsBadEmail(t *testing.T) {
	newMockDB(t)

	rec := postJSON(Signup, `{"email":"not-an-email","password":"longenough1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupDuplicateEmail(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("SELECT email FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("alice@example.com"))

	rec := postJSON(Signup, `{"email":"alice@example.com","password":"longenough1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupNormalizesEmail(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("SELECT email FROM users").
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := postJSON(Signup, `{"email":"  Alice@Example.COM ","password":"longenough1"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alice@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password_hash")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupInsertRaceIsConflict(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("SELECT email FROM users").
		WillReturnError(sql.ErrNoRows)
	// A concurrent signup for the same email won the insert.
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	rec := postJSON(Signup, `{"email":"alice@example.com","password":"longenough1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignupInsertFailureIsNotConflict(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectQuery("SELECT email FROM users").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("connection reset by peer"))

	rec := postJSON(Signup, `{"email":"alice@example.com","password":"longenough1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}
