package room

import (
	"log/slog"
	"sync"

	"github.com/playmesh/gameroom-backend/internal/game"
)

// RoomMeta - the projection used by listings. An unknown id yields a
// well-formed zero-valued meta instead of an error, so callers can render
// "room not found" uniformly.
type RoomMeta struct {
	ID          string `json:"id"`
	State       State  `json:"state"`
	GameType    string `json:"gameType"`
	OwnerID     string `json:"ownerId"`
	PlayerCount int    `json:"playerCount"`
}

// Registry is the process-wide directory of rooms. It is constructed
// explicitly and injected; there is no package-level instance.
type Registry struct {
	logger      *slog.Logger
	broadcaster Broadcaster

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry(logger *slog.Logger, broadcaster Broadcaster) *Registry {
	return &Registry{
		logger:      logger.With("component", "room-registry"),
		broadcaster: broadcaster,
		rooms:       make(map[string]*Room),
	}
}

// EnsureRoom returns the existing room or creates one, attaching the
// registry's broadcaster. The owner is set only if the room has none yet.
func (that *Registry) EnsureRoom(id, ownerID string) *Room {
	that.mu.Lock()
	existing, ok := that.rooms[id]
	if !ok {
		existing = New(id, ownerID, that.logger)
		existing.AttachBroadcaster(that.broadcaster)
		that.rooms[id] = existing
	}
	that.mu.Unlock()

	existing.SetOwnerIfEmpty(ownerID)

	return existing
}

// AttachGame ensures the room exists and binds the engine to it.
func (that *Registry) AttachGame(id string, engine game.Engine, ownerID string) *Room {
	existing := that.EnsureRoom(id, ownerID)
	existing.AttachGame(engine)

	return existing
}

func (that *Registry) Lookup(id string) (*Room, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	existing, ok := that.rooms[id]

	return existing, ok
}

// DeleteRoom removes the room, but only for its owner. A room without an
// owner may be deleted by anyone. Authorization lives here, not in Room.
func (that *Registry) DeleteRoom(id, requesterID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	existing, ok := that.rooms[id]
	if !ok {
		return false
	}

	if owner := existing.Owner(); owner != "" && owner != requesterID {
		return false
	}

	delete(that.rooms, id)

	return true
}

// DestroyRoom removes the room unconditionally.
func (that *Registry) DestroyRoom(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[id]; !ok {
		return false
	}

	delete(that.rooms, id)

	return true
}

func (that *Registry) ListRooms() []RoomMeta {
	that.mu.RLock()
	defer that.mu.RUnlock()

	metas := make([]RoomMeta, 0, len(that.rooms))
	for id, existing := range that.rooms {
		metas = append(metas, RoomMeta{
			ID:          id,
			State:       existing.State(),
			GameType:    existing.GameType(),
			OwnerID:     existing.Owner(),
			PlayerCount: existing.PlayerCount(),
		})
	}

	return metas
}

func (that *Registry) GetRoomMeta(id string) RoomMeta {
	existing, ok := that.Lookup(id)
	if !ok {
		return RoomMeta{ID: id}
	}

	return RoomMeta{
		ID:          id,
		State:       existing.State(),
		GameType:    existing.GameType(),
		OwnerID:     existing.Owner(),
		PlayerCount: existing.PlayerCount(),
	}
}

// Pass-through operations resolve the room by id and report failure for an
// unknown room rather than erroring.

func (that *Registry) AddPlayer(id, playerID string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.AddPlayer(playerID)
}

func (that *Registry) RemovePlayer(id, playerID string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.RemovePlayer(playerID)
}

func (that *Registry) SubmitAction(id, playerID string, action game.Action) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.SubmitAction(playerID, action)
}

func (that *Registry) Start(id string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.Start()
}

func (that *Registry) Pause(id string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.Pause()
}

func (that *Registry) End(id string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.End()
}

func (that *Registry) Reset(id string) bool {
	existing, ok := that.Lookup(id)
	if !ok {
		return false
	}

	return existing.Reset()
}

func (that *Registry) GetSnapshot(id string) any {
	existing, ok := that.Lookup(id)
	if !ok {
		return nil
	}

	return existing.GetSnapshot()
}
