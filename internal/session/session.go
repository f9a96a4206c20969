package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/playmesh/gameroom-backend/internal/apperror"
	"github.com/playmesh/gameroom-backend/internal/game"
	"github.com/playmesh/gameroom-backend/internal/tictactoe"
)

// State of a timer-enabled session. Richer than the generic room lifecycle:
// the playing turn and the terminal outcome are states of their own.
type State string

const (
	StateOpen  State = "OPEN"
	StateXTurn State = "X_TURN"
	StateOTurn State = "O_TURN"
	StateXWon  State = "X_WON"
	StateOWon  State = "O_WON"
	StateDraw  State = "DRAW"
)

const (
	EventGameState          = "GAME_STATE"
	EventTurnTimeout        = "TURN_TIMEOUT"
	EventDisconnectForfeit  = "DISCONNECT_FORFEIT"
	EventPlayerDisconnected = "PLAYER_DISCONNECTED"
	EventPlayerReconnected  = "PLAYER_RECONNECTED"
	EventPlayerLeft         = "PLAYER_LEFT"
	EventGameReset          = "GAME_RESET"
)

const maxPlayers = 2

// Snapshot - the published session state. TurnTimeRemaining is computed
// server-side and clamped to >= 0 so clients can render countdowns without
// clock synchronization.
type Snapshot struct {
	Board               [9]tictactoe.Cell `json:"board"`
	State               State             `json:"state"`
	Players             tictactoe.Players `json:"players"`
	LastUpdatedAt       int64             `json:"lastUpdatedAt"`
	TurnStartedAt       int64             `json:"turnStartedAt,omitempty"`
	TurnTimeRemaining   *int64            `json:"turnTimeRemaining"`
	DisconnectedPlayers []string          `json:"disconnectedPlayers"`
}

// Event - the wire envelope for session broadcasts.
type Event struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

type EventPayload struct {
	Snapshot
	TimedOutPlayer     *tictactoe.Role `json:"timedOutPlayer,omitempty"`
	ForfeitedPlayer    *tictactoe.Role `json:"forfeitedPlayer,omitempty"`
	DisconnectedPlayer *tictactoe.Role `json:"disconnectedPlayer,omitempty"`
	ReconnectTimeoutMS int64           `json:"reconnectTimeoutMs,omitempty"`
}

type publisher interface {
	Broadcast(topic string, message []byte)
}

type disconnectedPlayer struct {
	role           tictactoe.Role
	disconnectedAt time.Time
	timer          *time.Timer
}

// Session is a self-contained tic-tac-toe room with a turn-timeout and a
// disconnect-grace forfeiture protocol. Timer callbacks run concurrently
// with request handling, so every state-mutating path cancels or replaces
// the relevant timer atomically with the mutation.
type Session struct {
	id        string
	logger    *slog.Logger
	publisher publisher

	turnTimeout       time.Duration
	disconnectTimeout time.Duration
	onResult          func(roomID string, result game.Result)

	mu            sync.Mutex
	board         [9]tictactoe.Cell
	state         State
	slots         *tictactoe.SlotRegistry
	connected     map[string]struct{}
	disconnected  map[string]*disconnectedPlayer
	turnTimer     *time.Timer
	turnEpoch     uint64
	turnStartedAt time.Time
	startedAt     time.Time
	lastUpdatedAt time.Time
	closed        bool
}

func New(id string, logger *slog.Logger, pub publisher, turnTimeout, disconnectTimeout time.Duration, onResult func(roomID string, result game.Result)) *Session {
	return &Session{
		id:                id,
		logger:            logger.With("component", "session", "roomID", id),
		publisher:         pub,
		turnTimeout:       turnTimeout,
		disconnectTimeout: disconnectTimeout,
		onResult:          onResult,
		state:             StateOpen,
		slots:             tictactoe.NewSlotRegistry(),
		connected:         make(map[string]struct{}),
		disconnected:      make(map[string]*disconnectedPlayer),
		lastUpdatedAt:     time.Now(),
	}
}

func (that *Session) ID() string { return that.id }

// Join seats a player, or restores a disconnected one. A reconnect before
// the grace period elapses cancels the forfeiture timer and resumes the game
// exactly where it left off.
func (that *Session) Join(playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if entry, ok := that.disconnected[playerID]; ok {
		entry.timer.Stop()
		delete(that.disconnected, playerID)
		that.connected[playerID] = struct{}{}

		that.logger.Info("player reconnected", "playerID", playerID)
		that.broadcastLocked(EventPlayerReconnected, nil)

		return nil
	}

	if _, ok := that.connected[playerID]; ok {
		return nil
	}

	if that.isEndStateLocked() {
		return apperror.ErrGameEnded
	}

	if len(that.connected) >= maxPlayers {
		return apperror.ErrRoomFull
	}

	that.connected[playerID] = struct{}{}
	that.slots.Assign(playerID)

	if len(that.connected) == maxPlayers {
		that.state = StateXTurn
		that.startedAt = time.Now()
		that.lastUpdatedAt = that.startedAt
		that.startTurnTimerLocked()
	}

	that.broadcastLocked(EventGameState, nil)

	return nil
}

// Leave handles a connection drop. Mid-game the player is not forfeited
// immediately: a disconnect-grace timer starts and observers are told how
// long the player has to come back.
func (that *Session) Leave(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.connected[playerID]; !ok {
		return
	}
	delete(that.connected, playerID)

	role, hasRole := that.slots.RoleOf(playerID)

	if hasRole && !that.isEndStateLocked() && that.state != StateOpen {
		entry := &disconnectedPlayer{
			role:           role,
			disconnectedAt: time.Now(),
		}
		entry.timer = time.AfterFunc(that.disconnectTimeout, func() {
			that.handleDisconnectTimeout(playerID)
		})
		that.disconnected[playerID] = entry

		that.logger.Info("player disconnected, grace period started", "playerID", playerID, "role", role)
		that.broadcastLocked(EventPlayerDisconnected, func(payload *EventPayload) {
			payload.DisconnectedPlayer = &role
			payload.ReconnectTimeoutMS = that.disconnectTimeout.Milliseconds()
		})

		return
	}

	if hasRole {
		that.slots.Remove(playerID)
	}

	that.broadcastLocked(EventPlayerLeft, nil)
}

// Move applies a player's move. Every accepted move cancels and restarts the
// turn timer for the new turn.
func (that *Session) Move(playerID string, cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.isEndStateLocked() {
		return apperror.ErrGameEnded
	}

	if that.state == StateOpen {
		return apperror.ErrGameNotStarted
	}

	role, ok := that.slots.RoleOf(playerID)
	if !ok || role != that.currentTurnLocked() {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.board) {
		return apperror.ErrInvalidCell
	}

	if that.board[cell] != tictactoe.EmptyCell {
		return apperror.ErrCellOccupied
	}

	that.board[cell] = tictactoe.Cell(role)
	that.advanceLocked()
	that.broadcastLocked(EventGameState, nil)

	if that.isEndStateLocked() {
		that.emitResultLocked()
	}

	return nil
}

// Reset cancels every pending timer before reinitializing, so a stale timer
// cannot fire into the fresh game. When both seats are still occupied the
// next game starts immediately.
func (that *Session) Reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clearAllTimersLocked()
	that.board = [9]tictactoe.Cell{}
	that.turnStartedAt = time.Time{}
	that.lastUpdatedAt = time.Now()

	if len(that.connected) == maxPlayers {
		that.state = StateXTurn
		that.startedAt = time.Now()
		that.startTurnTimerLocked()
	} else {
		that.state = StateOpen
	}

	that.broadcastLocked(EventGameReset, nil)
}

// Close cancels all timers. Safe to call more than once; a timer callback
// arriving after Close is a harmless no-op.
func (that *Session) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clearAllTimersLocked()
	that.closed = true
}

func (that *Session) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *Session) GameState() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshotLocked()
}

func (that *Session) isEndStateLocked() bool {
	return that.state == StateXWon || that.state == StateOWon || that.state == StateDraw
}

func (that *Session) currentTurnLocked() tictactoe.Role {
	if that.state == StateOTurn {
		return tictactoe.RoleO
	}

	return tictactoe.RoleX
}

// advanceLocked recomputes the state after a move: win, draw, or the other
// player's turn with a fresh timer.
func (that *Session) advanceLocked() {
	that.lastUpdatedAt = time.Now()

	for _, combo := range tictactoe.WinCombos {
		a, b, c := that.board[combo[0]], that.board[combo[1]], that.board[combo[2]]
		if a != tictactoe.EmptyCell && a == b && b == c {
			if tictactoe.Role(a) == tictactoe.RoleX {
				that.state = StateXWon
			} else {
				that.state = StateOWon
			}
			that.stopTurnTimerLocked()

			return
		}
	}

	full := true
	for _, cell := range that.board {
		if cell == tictactoe.EmptyCell {
			full = false
			break
		}
	}

	if full {
		that.state = StateDraw
		that.stopTurnTimerLocked()

		return
	}

	if that.state == StateXTurn {
		that.state = StateOTurn
	} else {
		that.state = StateXTurn
	}
	that.startTurnTimerLocked()
}

func (that *Session) startTurnTimerLocked() {
	that.stopTurnTimerLocked()

	if that.state != StateXTurn && that.state != StateOTurn {
		return
	}

	that.turnEpoch++
	epoch := that.turnEpoch
	that.turnStartedAt = time.Now()
	that.turnTimer = time.AfterFunc(that.turnTimeout, func() {
		that.handleTurnTimeout(epoch)
	})
}

// stopTurnTimerLocked cancels the pending turn timer and invalidates any
// callback already in flight.
func (that *Session) stopTurnTimerLocked() {
	that.turnEpoch++

	if that.turnTimer != nil {
		that.turnTimer.Stop()
		that.turnTimer = nil
	}
}

func (that *Session) clearAllTimersLocked() {
	that.stopTurnTimerLocked()

	for playerID, entry := range that.disconnected {
		entry.timer.Stop()
		delete(that.disconnected, playerID)
	}
}

// handleTurnTimeout forfeits the player whose turn expired. The epoch check
// discards callbacks that lost the race against a move or a reset.
func (that *Session) handleTurnTimeout(epoch uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || epoch != that.turnEpoch {
		return
	}

	if that.state != StateXTurn && that.state != StateOTurn {
		return
	}

	timedOut := that.currentTurnLocked()
	if timedOut == tictactoe.RoleX {
		that.state = StateOWon
	} else {
		that.state = StateXWon
	}

	that.stopTurnTimerLocked()
	that.lastUpdatedAt = time.Now()

	that.logger.Info("turn timed out", "role", timedOut)
	that.broadcastLocked(EventTurnTimeout, func(payload *EventPayload) {
		payload.TimedOutPlayer = &timedOut
	})
	that.emitResultLocked()
}

// handleDisconnectTimeout forfeits a player whose grace period elapsed. A
// player who reconnected in time is no longer in the disconnected map and
// the callback is a no-op.
func (that *Session) handleDisconnectTimeout(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	entry, ok := that.disconnected[playerID]
	if !ok || that.closed {
		return
	}
	delete(that.disconnected, playerID)

	if !that.isEndStateLocked() && that.state != StateOpen {
		if entry.role.Opponent() == tictactoe.RoleX {
			that.state = StateXWon
		} else {
			that.state = StateOWon
		}

		that.stopTurnTimerLocked()
		that.lastUpdatedAt = time.Now()

		that.logger.Info("disconnect grace elapsed, player forfeits", "playerID", playerID, "role", entry.role)
		that.broadcastLocked(EventDisconnectForfeit, func(payload *EventPayload) {
			payload.ForfeitedPlayer = &entry.role
		})
		that.emitResultLocked()
	}

	that.slots.Remove(playerID)
}

func (that *Session) emitResultLocked() {
	if that.onResult == nil {
		return
	}

	var winner *string
	switch that.state {
	case StateXWon:
		value := string(tictactoe.RoleX)
		winner = &value
	case StateOWon:
		value := string(tictactoe.RoleO)
		winner = &value
	}

	var duration int64
	if !that.startedAt.IsZero() {
		duration = time.Since(that.startedAt).Milliseconds()
	}

	players := that.slots.Players()
	result := game.Result{
		Winner:   winner,
		Duration: duration,
		Players: map[string]*string{
			string(tictactoe.RoleX): players.X,
			string(tictactoe.RoleO): players.O,
		},
	}

	// Delivered outside the lock: the sink may do I/O.
	go that.onResult(that.id, result)
}

func (that *Session) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Board:               that.board,
		State:               that.state,
		Players:             that.slots.Players(),
		LastUpdatedAt:       that.lastUpdatedAt.UnixMilli(),
		DisconnectedPlayers: make([]string, 0, len(that.disconnected)),
	}

	for playerID := range that.disconnected {
		snapshot.DisconnectedPlayers = append(snapshot.DisconnectedPlayers, playerID)
	}

	if that.turnTimer != nil && !that.turnStartedAt.IsZero() {
		snapshot.TurnStartedAt = that.turnStartedAt.UnixMilli()

		remaining := that.turnTimeout.Milliseconds() - time.Since(that.turnStartedAt).Milliseconds()
		if remaining < 0 {
			remaining = 0
		}
		snapshot.TurnTimeRemaining = &remaining
	}

	return snapshot
}

func (that *Session) broadcastLocked(eventType string, decorate func(*EventPayload)) {
	if that.publisher == nil {
		return
	}

	payload := EventPayload{Snapshot: that.snapshotLocked()}
	if decorate != nil {
		decorate(&payload)
	}

	message, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	that.publisher.Broadcast(that.id, message)
}
