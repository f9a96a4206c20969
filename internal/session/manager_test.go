package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmesh/gameroom-backend/internal/game"
)

type fakeResultSink struct {
	mu    sync.Mutex
	saved map[string]game.Result
}

func newFakeResultSink() *fakeResultSink {
	return &fakeResultSink{saved: make(map[string]game.Result)}
}

func (that *fakeResultSink) Save(_ context.Context, roomID string, result *game.Result) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.saved[roomID] = *result

	return nil
}

func (that *fakeResultSink) get(roomID string) (game.Result, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	result, ok := that.saved[roomID]

	return result, ok
}

func newTestManager(sink resultSink) *Manager {
	return NewManager(testLogger(), &capturingPublisher{}, sink, longTimeout, longTimeout)
}

func TestManager_EnsureSession(t *testing.T) {
	// Given: an empty manager
	manager := newTestManager(nil)

	// When: ensuring the same id twice
	first := manager.EnsureSession("room-1")
	second := manager.EnsureSession("room-1")

	// Then: one session exists
	assert.Same(t, first, second)

	found, ok := manager.Lookup("room-1")
	require.True(t, ok)
	assert.Same(t, first, found)
}

func TestManager_DestroySession(t *testing.T) {
	t.Run("Removes the session and stops its timers", func(t *testing.T) {
		// Given: a manager with a live session
		manager := newTestManager(nil)
		sess := manager.EnsureSession("room-1")
		require.NoError(t, sess.Join("p1"))
		require.NoError(t, sess.Join("p2"))

		// When: destroying it
		assert.True(t, manager.DestroySession("room-1"))

		// Then: it is gone from the directory
		_, ok := manager.Lookup("room-1")
		assert.False(t, ok)
	})

	t.Run("Destroying an unknown session fails", func(t *testing.T) {
		manager := newTestManager(nil)

		assert.False(t, manager.DestroySession("missing"))
	})
}

func TestManager_SavesResult(t *testing.T) {
	// Given: a manager backed by a recording sink
	sink := newFakeResultSink()
	manager := newTestManager(sink)

	sess := manager.EnsureSession("room-1")
	t.Cleanup(sess.Close)
	require.NoError(t, sess.Join("p1"))
	require.NoError(t, sess.Join("p2"))

	// When: X wins
	winInARow(t, sess)

	// Then: the result lands in the sink under the room id
	deadline := time.Now().Add(2 * time.Second)
	for {
		if result, ok := sink.get("room-1"); ok {
			require.NotNil(t, result.Winner)
			assert.Equal(t, "X", *result.Winner)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("result was never saved")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
