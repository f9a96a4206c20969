package room

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/playmesh/gameroom-backend/internal/broadcast"
	"github.com/playmesh/gameroom-backend/internal/game"
)

const eventSnapshot = "snapshot"

// Broadcaster is the pub/sub surface the room publishes to, keyed by room
// identifier.
type Broadcaster interface {
	Broadcast(topic string, message []byte)
	AddListener(topic string, listener *broadcast.Listener)
	RemoveListener(topic string, listener *broadcast.Listener)
}

// Event - the payload pushed to every room observer after a successful
// state mutation.
type Event struct {
	RoomID   string `json:"roomId"`
	State    State  `json:"state"`
	GameType string `json:"gameType"`
	Snapshot any    `json:"snapshot"`
	Event    string `json:"event"`
}

// Room binds one game engine to one lifecycle state machine. Every
// successful operation broadcasts a fresh snapshot.
type Room struct {
	logger *slog.Logger

	mu          sync.Mutex
	id          string
	ownerID     string
	broadcaster Broadcaster
	engine      game.Engine
	machine     *Machine
}

// New creates a room without a broadcaster; mutations are not observable
// until one is attached via AttachBroadcaster.
func New(id, ownerID string, logger *slog.Logger) *Room {
	return &Room{
		logger:  logger.With("component", "room", "roomID", id),
		id:      id,
		ownerID: ownerID,
		machine: NewMachine(),
	}
}

func (that *Room) ID() string {
	return that.id
}

func (that *Room) Owner() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.ownerID
}

func (that *Room) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.machine.Current()
}

func (that *Room) GameType() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return ""
	}

	return that.engine.Type()
}

func (that *Room) PlayerCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return 0
	}

	return that.engine.PlayerCount()
}

// SetOwnerIfEmpty sets the owner only when none is set. First owner wins;
// it is never overwritten.
func (that *Room) SetOwnerIfEmpty(ownerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.ownerID == "" && ownerID != "" {
		that.ownerID = ownerID
	}
}

func (that *Room) AttachBroadcaster(broadcaster Broadcaster) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcaster = broadcaster
}

// AttachGame binds the engine and resets it to a fresh state.
func (that *Room) AttachGame(engine game.Engine) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.engine = engine
	that.engine.Init()
}

// AddPlayer seats the player and auto-transitions OPEN -> READY exactly when
// the engine reports ready-to-start and the room is still OPEN.
func (that *Room) AddPlayer(playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil || !that.engine.CanAcceptMorePlayers() {
		return false
	}

	that.engine.HandlePlayerConnect(playerID)
	that.logger.Info("player joined", "playerID", playerID, "role", that.engine.PlayerRole(playerID))

	if that.engine.IsReadyToStart() && that.machine.Current() == StateOpen {
		that.machine.TransitionTo(StateReady)
	}

	that.broadcastLocked()

	return true
}

// RemovePlayer unseats the player. A departure mid-game pauses the room
// rather than continuing or ending it; forfeiture is a higher-level policy.
func (that *Room) RemovePlayer(playerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return false
	}

	that.engine.HandlePlayerDisconnect(playerID)

	if that.machine.Current() == StateInGame {
		that.pauseLocked()
	}

	that.broadcastLocked()

	return true
}

// SubmitAction validates and applies a player action. Actions are only
// accepted while the game is running. When the action ends the game, the
// room transitions to ENDED and broadcasts once more.
func (that *Room) SubmitAction(playerID string, action game.Action) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil || that.machine.Current() != StateInGame {
		return false
	}

	if !that.engine.IsValidAction(playerID, action) {
		return false
	}

	that.engine.PlayerAction(playerID, action)
	that.engine.UpdateState()
	that.broadcastLocked()

	if that.engine.CheckEndConditions() {
		that.endLocked()
	}

	return true
}

func (that *Room) Start() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil || !that.machine.TransitionTo(StateInGame) {
		return false
	}

	that.engine.StartGame()
	that.broadcastLocked()

	return true
}

func (that *Room) Pause() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return false
	}

	if !that.pauseLocked() {
		return false
	}

	that.broadcastLocked()

	return true
}

func (that *Room) End() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return false
	}

	return that.endLocked()
}

func (that *Room) Reset() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.machine.TransitionTo(StateOpen) {
		return false
	}

	if that.engine != nil {
		that.engine.Init()
		that.broadcastLocked()
	}

	return true
}

func (that *Room) GetSnapshot() any {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.engine == nil {
		return nil
	}

	return that.engine.Snapshot()
}

func (that *Room) Subscribe(listener *broadcast.Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.broadcaster == nil {
		return
	}

	that.broadcaster.AddListener(that.id, listener)
}

func (that *Room) Unsubscribe(listener *broadcast.Listener) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.broadcaster == nil {
		return
	}

	that.broadcaster.RemoveListener(that.id, listener)
}

func (that *Room) pauseLocked() bool {
	if !that.machine.TransitionTo(StateReady) {
		return false
	}

	that.engine.PauseGame()

	return true
}

func (that *Room) endLocked() bool {
	if !that.machine.TransitionTo(StateEnded) {
		return false
	}

	that.engine.EndGame()
	that.logger.Info("game ended", "result", that.engine.Result())
	that.broadcastLocked()

	return true
}

func (that *Room) broadcastLocked() {
	if that.broadcaster == nil || that.engine == nil {
		return
	}

	payload, err := json.Marshal(Event{
		RoomID:   that.id,
		State:    that.machine.Current(),
		GameType: that.engine.Type(),
		Snapshot: that.engine.Snapshot(),
		Event:    eventSnapshot,
	})
	if err != nil {
		that.logger.Error("failed to marshal snapshot event", "error", err)
		return
	}

	that.broadcaster.Broadcast(that.id, payload)
}
