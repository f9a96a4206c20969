package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playmesh/gameroom-backend/internal/game"
)

type resultSink interface {
	Save(ctx context.Context, roomID string, result *game.Result) error
}

// Manager owns the directory of timer-enabled sessions and routes emitted
// results to the persistence collaborator.
type Manager struct {
	logger    *slog.Logger
	publisher publisher
	results   resultSink

	turnTimeout       time.Duration
	disconnectTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(logger *slog.Logger, pub publisher, results resultSink, turnTimeout, disconnectTimeout time.Duration) *Manager {
	return &Manager{
		logger:            logger.With("component", "session-manager"),
		publisher:         pub,
		results:           results,
		turnTimeout:       turnTimeout,
		disconnectTimeout: disconnectTimeout,
		sessions:          make(map[string]*Session),
	}
}

// EnsureSession returns the existing session or creates one.
func (that *Manager) EnsureSession(id string) *Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.sessions[id]
	if !ok {
		existing = New(id, that.logger, that.publisher, that.turnTimeout, that.disconnectTimeout, that.saveResult)
		that.sessions[id] = existing
	}

	return existing
}

func (that *Manager) Lookup(id string) (*Session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.sessions[id]

	return existing, ok
}

// DestroySession cancels the session's timers before removing it, so no
// callback fires against an id no longer in the directory.
func (that *Manager) DestroySession(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.sessions[id]
	if !ok {
		return false
	}

	existing.Close()
	delete(that.sessions, id)

	return true
}

func (that *Manager) saveResult(roomID string, result game.Result) {
	log := that.logger.With("method", "saveResult", "roomID", roomID)

	if that.results == nil {
		return
	}

	if err := that.results.Save(context.Background(), roomID, &result); err != nil {
		log.Error("failed to save result", "error", err)
		return
	}

	log.Info("game result saved")
}
