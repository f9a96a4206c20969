package tictactoe

import (
	"time"

	"github.com/playmesh/gameroom-backend/internal/game"
)

const (
	GameType   = "tic-tac-toe"
	BoardSize  = 3
	boardCells = BoardSize * BoardSize
)

// WinCombos - the 8 winning triples on a 3x3 board: 3 rows, 3 columns,
// 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Move is the only action variant tic-tac-toe accepts.
type Move struct {
	Cell int
}

func (Move) Kind() string { return "move" }

// Snapshot - the wire shape pushed to observers. Board is positionally
// indexed 0-8, row-major, top-left origin.
type Snapshot struct {
	Board       [boardCells]Cell `json:"board"`
	CurrentTurn Role             `json:"currentTurn"`
	Winner      *Role            `json:"winner"`
	Players     Players          `json:"players"`
}

// Game implements game.Engine for tic-tac-toe.
type Game struct {
	slots     *SlotRegistry
	board     [boardCells]Cell
	turn      Role
	winner    *Role
	startedAt time.Time
}

func New() *Game {
	that := &Game{}
	that.Init()

	return that
}

func (that *Game) Type() string { return GameType }

func (that *Game) Init() {
	that.slots = NewSlotRegistry()
	that.board = [boardCells]Cell{}
	that.turn = RoleX
	that.winner = nil
	that.startedAt = time.Time{}
}

func (that *Game) HandlePlayerConnect(playerID string) {
	that.slots.Assign(playerID)
}

func (that *Game) HandlePlayerDisconnect(playerID string) {
	that.slots.Remove(playerID)
}

// HandlePlayerReconnect re-registers the player; no per-move state is
// migrated for a turn-based game.
func (that *Game) HandlePlayerReconnect(playerID string) {
	that.slots.Assign(playerID)
}

func (that *Game) PlayerRole(playerID string) string {
	role, ok := that.slots.RoleOf(playerID)
	if !ok {
		return ""
	}

	return string(role)
}

func (that *Game) PlayerCount() int {
	return that.slots.Count()
}

func (that *Game) CanAcceptMorePlayers() bool {
	return that.slots.CanAcceptMore()
}

// IsValidAction checks, in order: the player holds a playing role, it is
// that role's turn, the target cell is in bounds, the cell is empty.
func (that *Game) IsValidAction(playerID string, action game.Action) bool {
	move, ok := action.(Move)
	if !ok {
		return false
	}

	role, ok := that.slots.RoleOf(playerID)
	if !ok || role != that.turn {
		return false
	}

	if move.Cell < 0 || move.Cell >= boardCells {
		return false
	}

	return that.board[move.Cell] == EmptyCell
}

// PlayerAction applies a move. Callers are expected to have validated via
// IsValidAction; an invalid call is a silent no-op and never corrupts state.
func (that *Game) PlayerAction(playerID string, action game.Action) {
	move, ok := action.(Move)
	if !ok {
		return
	}

	role, ok := that.slots.RoleOf(playerID)
	if !ok || role != that.turn {
		return
	}

	if move.Cell < 0 || move.Cell >= boardCells || that.board[move.Cell] != EmptyCell {
		return
	}

	that.board[move.Cell] = Cell(role)
	that.turn = that.turn.Opponent()
}

// UpdateState recomputes the winner by scanning the winning triples. A full
// board with no winner is a draw, decided by CheckEndConditions.
func (that *Game) UpdateState() {
	for _, combo := range WinCombos {
		a, b, c := that.board[combo[0]], that.board[combo[1]], that.board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			winner := Role(a)
			that.winner = &winner

			return
		}
	}
}

func (that *Game) CheckEndConditions() bool {
	if that.winner != nil {
		return true
	}

	for _, cell := range that.board {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Game) IsReadyToStart() bool {
	return that.slots.IsFull()
}

func (that *Game) StartGame() {
	that.startedAt = time.Now()
}

// PauseGame is a no-op: a turn-based game has nothing to suspend.
func (that *Game) PauseGame() {}

// EndGame is a hook for result emission; the room layer reads Result.
func (that *Game) EndGame() {}

func (that *Game) Snapshot() any {
	return Snapshot{
		Board:       that.board,
		CurrentTurn: that.turn,
		Winner:      that.winner,
		Players:     that.slots.Players(),
	}
}

func (that *Game) Result() game.Result {
	var winner *string
	if that.winner != nil {
		value := string(*that.winner)
		winner = &value
	}

	var duration int64
	if !that.startedAt.IsZero() {
		duration = time.Since(that.startedAt).Milliseconds()
	}

	players := that.slots.Players()

	return game.Result{
		Winner:   winner,
		Duration: duration,
		Players: map[string]*string{
			string(RoleX): players.X,
			string(RoleO): players.O,
		},
	}
}
