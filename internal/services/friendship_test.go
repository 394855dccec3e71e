package services

import (
	"context"
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maplequest/maplequest-backend/internal/database"
	"github.com/maplequest/maplequest-backend/internal/models"
	"github.com/maplequest/maplequest-backend/pkg/apierror"
)

// newMockDB swaps the package-level connection for a sqlmock and restores it
// when the test ends.
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

func expectRecipientExists(mock sqlmock.Sqlmock, exists bool) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(exists))
}

func friendRequestRow(req models.FriendRequest) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "created_at", "updated_at", "from_user", "to_user", "status"}).
		AddRow(req.ID.String(), req.CreatedAt, req.UpdatedAt, req.FromUser.String(), req.ToUser.String(), req.Status)
}

func TestProposeFriendshipToSelf(t *testing.T) {
	newMockDB(t)
	me := uuid.New()

	_, err := ProposeFriendship(context.Background(), me, me)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierror.From(err).Status)
}

func TestProposeFriendshipRecipientMissing(t *testing.T) {
	mock := newMockDB(t)
	expectRecipientExists(mock, false)

	_, err := ProposeFriendship(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeFriendshipCreatesPending(t *testing.T) {
	mock := newMockDB(t)
	from, to := uuid.New(), uuid.New()

	expectRecipientExists(mock, true)
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO friend_requests").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), from.String(), to.String(), models.FriendRequestPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := ProposeFriendship(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.AlreadyFriends)
	assert.Equal(t, models.FriendRequestPending, res.Request.Status)
	assert.Equal(t, from, res.Request.FromUser)
	assert.Equal(t, to, res.Request.ToUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeFriendshipPendingIsIdempotent(t *testing.T) {
	mock := newMockDB(t)
	from, to := uuid.New(), uuid.New()
	existing := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: from, ToUser: to, Status: models.FriendRequestPending,
	}

	expectRecipientExists(mock, true)
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(existing))

	res, err := ProposeFriendship(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, existing.ID, res.Request.ID)
	// No INSERT or UPDATE was expected: the existing record is untouched.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeFriendshipAlreadyFriends(t *testing.T) {
	mock := newMockDB(t)
	from, to := uuid.New(), uuid.New()
	existing := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: to, ToUser: from, Status: models.FriendRequestAccepted,
	}

	expectRecipientExists(mock, true)
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(existing))

	res, err := ProposeFriendship(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, res.AlreadyFriends)
	assert.False(t, res.Created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeFriendshipRevivesRejected(t *testing.T) {
	mock := newMockDB(t)
	alice, bob := uuid.New(), uuid.New()
	// Bob proposed to Alice once and was rejected. Alice now proposes to Bob:
	// the same row flips to pending with Alice as sender.
	existing := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: bob, ToUser: alice, Status: models.FriendRequestRejected,
	}

	expectRecipientExists(mock, true)
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(existing))
	mock.ExpectExec("UPDATE friend_requests SET from_user").
		WithArgs(alice.String(), bob.String(), models.FriendRequestPending, sqlmock.AnyArg(), existing.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := ProposeFriendship(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, existing.ID, res.Request.ID)
	assert.Equal(t, models.FriendRequestPending, res.Request.Status)
	assert.Equal(t, alice, res.Request.FromUser)
	assert.Equal(t, bob, res.Request.ToUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeFriendshipInsertRace(t *testing.T) {
	mock := newMockDB(t)
	from, to := uuid.New(), uuid.New()
	winner := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: to, ToUser: from, Status: models.FriendRequestPending,
	}

	expectRecipientExists(mock, true)
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO friend_requests").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(winner))

	res, err := ProposeFriendship(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, winner.ID, res.Request.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptFriendRequestByRecipient(t *testing.T) {
	mock := newMockDB(t)
	req := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: uuid.New(), ToUser: uuid.New(), Status: models.FriendRequestPending,
	}

	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(req))
	mock.ExpectExec("UPDATE friend_requests SET status").
		WithArgs(models.FriendRequestAccepted, sqlmock.AnyArg(), req.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := AcceptFriendRequest(context.Background(), req.ID, req.ToUser)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptFriendRequestForbiddenForSender(t *testing.T) {
	mock := newMockDB(t)
	req := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: uuid.New(), ToUser: uuid.New(), Status: models.FriendRequestPending,
	}

	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(req))

	_, err := AcceptFriendRequest(context.Background(), req.ID, req.FromUser)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptFriendRequestAlreadyAccepted(t *testing.T) {
	mock := newMockDB(t)
	req := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: uuid.New(), ToUser: uuid.New(), Status: models.FriendRequestAccepted,
	}

	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(req))

	got, err := AcceptFriendRequest(context.Background(), req.ID, req.ToUser)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptFriendRequestRejectedIsConflict(t *testing.T) {
	mock := newMockDB(t)
	req := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: uuid.New(), ToUser: uuid.New(), Status: models.FriendRequestRejected,
	}

	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(req))

	_, err := AcceptFriendRequest(context.Background(), req.ID, req.ToUser)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectFriendRequestAcceptedIsConflict(t *testing.T) {
	mock := newMockDB(t)
	req := models.FriendRequest{
		ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now(),
		FromUser: uuid.New(), ToUser: uuid.New(), Status: models.FriendRequestAccepted,
	}

	mock.ExpectQuery("SELECT id, created_at, updated_at, from_user, to_user, status").
		WillReturnRows(friendRequestRow(req))

	_, err := RejectFriendRequest(context.Background(), req.ID, req.ToUser)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendsSpansBothDirections(t *testing.T) {
	mock := newMockDB(t)
	me := uuid.New()
	a, b := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "email", "phone", "points"}).
		AddRow(a.String(), time.Now(), time.Now(), "a@example.com", nil, 100).
		AddRow(b.String(), time.Now(), time.Now(), "b@example.com", "555-0101", 0)
	mock.ExpectQuery("SELECT u.id, u.created_at, u.updated_at, u.email, u.phone, u.points").
		WithArgs(me.String()).
		WillReturnRows(rows)

	friends, err := Friends(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "a@example.com", friends[0].Email)
	assert.Equal(t, "555-0101", friends[1].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfriendWhenNotFriends(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM friend_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := Unfriend(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierror.From(err).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
