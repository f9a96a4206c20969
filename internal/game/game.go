package game

// Action is a game-specific move payload. Transports decode raw client
// payloads into a concrete Action exactly once at the boundary, so the core
// never deals with untyped data.
type Action interface {
	Kind() string
}

// Result - the final outcome of a game, emitted for a persistence
// collaborator. Winner is nil on a draw. Duration is in milliseconds.
type Result struct {
	Winner   *string            `json:"winner"`
	Duration int64              `json:"duration"`
	Players  map[string]*string `json:"players"`
}

// Engine is the contract every game implementation must satisfy. The room
// layer depends only on this interface; each concrete game owns its slot
// registry, state and config.
type Engine interface {
	// Type returns the game type identifier, e.g. "tic-tac-toe".
	Type() string
	// Init resets the engine to a fresh slot registry, state and config.
	// Idempotent, always safe to call.
	Init()

	HandlePlayerConnect(playerID string)
	HandlePlayerDisconnect(playerID string)
	HandlePlayerReconnect(playerID string)
	// PlayerRole returns the playing role held by the player, or "" for
	// spectators.
	PlayerRole(playerID string) string
	PlayerCount() int
	CanAcceptMorePlayers() bool

	IsValidAction(playerID string, action Action) bool
	// PlayerAction applies an already-validated action. It must never
	// corrupt state when handed an invalid one.
	PlayerAction(playerID string, action Action)
	UpdateState()
	CheckEndConditions() bool

	IsReadyToStart() bool
	StartGame()
	PauseGame()
	EndGame()

	// Snapshot returns a read-only, serializable projection of the current
	// state. It must never expose internal mutable references.
	Snapshot() any
	Result() Result
}
