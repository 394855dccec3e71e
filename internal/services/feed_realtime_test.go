package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingConn counts writes and flags any two that run concurrently.
type recordingConn struct {
	active  int32
	overlap int32
	writes  int32
	done    chan struct{}
	expect  int32
}

func newRecordingConn(expect int32) *recordingConn {
	return &recordingConn{done: make(chan struct{}), expect: expect}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	if !atomic.CompareAndSwapInt32(&c.active, 0, 1) {
		atomic.StoreInt32(&c.overlap, 1)
	}
	time.Sleep(5 * time.Millisecond)
	atomic.StoreInt32(&c.active, 0)
	if atomic.AddInt32(&c.writes, 1) == c.expect {
		close(c.done)
	}
	return nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed writes")
	}
}

func TestFanOutFeedEventSerializesWrites(t *testing.T) {
	userID := uuid.New()
	conn := newRecordingConn(2)

	RegisterFeedConnection(userID, conn, nil)
	defer UnregisterFeedConnection(userID)

	// Two closely spaced events for the same connection must not write to
	// the socket concurrently.
	event := FeedEvent{Type: "visit", UserID: userID.String()}
	FanOutFeedEvent(event)
	FanOutFeedEvent(event)

	conn.wait(t)
	assert.Equal(t, int32(0), atomic.LoadInt32(&conn.overlap))
	assert.Equal(t, int32(2), atomic.LoadInt32(&conn.writes))
}

func TestFanOutFeedEventFiltersByWatchSet(t *testing.T) {
	userID := uuid.New()
	friendID := uuid.New()
	strangerID := uuid.New()
	conn := newRecordingConn(2)

	RegisterFeedConnection(userID, conn, []uuid.UUID{friendID})
	defer UnregisterFeedConnection(userID)

	FanOutFeedEvent(FeedEvent{Type: "visit", UserID: strangerID.String()})
	FanOutFeedEvent(FeedEvent{Type: "visit", UserID: friendID.String()})
	FanOutFeedEvent(FeedEvent{Type: "visit", UserID: userID.String()})

	conn.wait(t)
	// Only the friend's and the user's own events arrive.
	assert.Equal(t, int32(2), atomic.LoadInt32(&conn.writes))
}

func TestRegisterFeedConnectionWatchesSelf(t *testing.T) {
	userID := uuid.New()
	fc := RegisterFeedConnection(userID, newRecordingConn(0), nil)
	defer UnregisterFeedConnection(userID)

	require.NotNil(t, fc)
	assert.True(t, fc.Watches(userID.String()))
	assert.False(t, fc.Watches(uuid.New().String()))
}
