package tictactoe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartedGame(t *testing.T) *Game {
	t.Helper()

	g := New()
	g.HandlePlayerConnect("p1")
	g.HandlePlayerConnect("p2")
	g.StartGame()

	return g
}

func TestGame_IsValidAction(t *testing.T) {
	t.Run("Rejects a spectator", func(t *testing.T) {
		// Given: a started game with two seated players
		g := newStartedGame(t)

		// When: a player without a role tries to move
		valid := g.IsValidAction("spectator", Move{Cell: 0})

		// Then: the action is invalid
		assert.False(t, valid)
	})

	t.Run("Rejects an empty player id against a vacant seat on turn", func(t *testing.T) {
		// Given: a game with only X seated, O's turn up next
		g := New()
		g.HandlePlayerConnect("p1")
		g.StartGame()
		g.PlayerAction("p1", Move{Cell: 0})

		// When: a nameless caller tries to move while O's seat is empty
		valid := g.IsValidAction("", Move{Cell: 1})

		// Then: the vacant seat cannot be acted for
		assert.False(t, valid)
		assert.Equal(t, "", g.PlayerRole(""))
	})

	t.Run("Rejects a move out of turn", func(t *testing.T) {
		// Given: a started game where X moves first
		g := newStartedGame(t)

		// When: O tries to move before X
		valid := g.IsValidAction("p2", Move{Cell: 0})

		// Then: the action is invalid
		assert.False(t, valid)
	})

	t.Run("Rejects an out-of-bounds cell", func(t *testing.T) {
		g := newStartedGame(t)

		assert.False(t, g.IsValidAction("p1", Move{Cell: -1}))
		assert.False(t, g.IsValidAction("p1", Move{Cell: 9}))
	})

	t.Run("Rejects an occupied cell", func(t *testing.T) {
		// Given: X already marked cell 4
		g := newStartedGame(t)
		g.PlayerAction("p1", Move{Cell: 4})

		// When: O targets the same cell
		valid := g.IsValidAction("p2", Move{Cell: 4})

		// Then: the action is invalid
		assert.False(t, valid)
	})

	t.Run("Accepts a legal move", func(t *testing.T) {
		g := newStartedGame(t)

		assert.True(t, g.IsValidAction("p1", Move{Cell: 0}))
	})
}

func TestGame_PlayerAction(t *testing.T) {
	t.Run("Alternates the turn after every accepted move", func(t *testing.T) {
		// Given: a started game
		g := newStartedGame(t)

		// When: three valid moves are applied alternately
		g.PlayerAction("p1", Move{Cell: 0})
		g.PlayerAction("p2", Move{Cell: 3})
		g.PlayerAction("p1", Move{Cell: 1})

		// Then: the turn has flipped three times from the initial X
		snapshot, ok := g.Snapshot().(Snapshot)
		require.True(t, ok)
		assert.Equal(t, RoleO, snapshot.CurrentTurn)
	})

	t.Run("An invalid call never corrupts state", func(t *testing.T) {
		// Given: a started game
		g := newStartedGame(t)

		// When: O moves out of turn and X targets an invalid cell
		g.PlayerAction("p2", Move{Cell: 0})
		g.PlayerAction("p1", Move{Cell: 42})

		// Then: the board is untouched and the turn never flipped
		snapshot, ok := g.Snapshot().(Snapshot)
		require.True(t, ok)
		assert.Equal(t, RoleX, snapshot.CurrentTurn)
		for _, cell := range snapshot.Board {
			assert.Equal(t, EmptyCell, cell)
		}
	})
}

func TestGame_WinAndDraw(t *testing.T) {
	t.Run("Top-row win after five alternating moves", func(t *testing.T) {
		// Given: a started game
		g := newStartedGame(t)

		// When: X plays 0,1,2 while O plays 3,4
		for i, cell := range []int{0, 3, 1, 4, 2} {
			player := "p1"
			if i%2 == 1 {
				player = "p2"
			}
			require.True(t, g.IsValidAction(player, Move{Cell: cell}))
			g.PlayerAction(player, Move{Cell: cell})
			g.UpdateState()
		}

		// Then: X wins and the game is over
		snapshot, ok := g.Snapshot().(Snapshot)
		require.True(t, ok)
		require.NotNil(t, snapshot.Winner)
		assert.Equal(t, RoleX, *snapshot.Winner)
		assert.True(t, g.CheckEndConditions())
	})

	t.Run("Full board with no line is a draw", func(t *testing.T) {
		// Given: a started game
		g := newStartedGame(t)

		// When: nine moves fill the board without three in a row
		// X: 0,1,5,6,8  O: 4,2,3,7
		for i, cell := range []int{0, 4, 1, 2, 5, 3, 6, 7, 8} {
			player := "p1"
			if i%2 == 1 {
				player = "p2"
			}
			require.True(t, g.IsValidAction(player, Move{Cell: cell}), "cell %d", cell)
			g.PlayerAction(player, Move{Cell: cell})
			g.UpdateState()
		}

		// Then: no winner, but end conditions hold
		snapshot, ok := g.Snapshot().(Snapshot)
		require.True(t, ok)
		assert.Nil(t, snapshot.Winner)
		assert.True(t, g.CheckEndConditions())
	})
}

func TestGame_SnapshotRoundTrip(t *testing.T) {
	// Given: a game mid-way through
	g := newStartedGame(t)
	g.PlayerAction("p1", Move{Cell: 4})
	g.UpdateState()

	original, ok := g.Snapshot().(Snapshot)
	require.True(t, ok)

	// When: the snapshot is serialized and deserialized
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Then: board, turn, winner and players survive the round trip, and
	// empty cells went over the wire as null
	assert.Equal(t, original, decoded)
	assert.Contains(t, string(data), `"board":[null,null,null,null,"X"`)
}

func TestGame_Result(t *testing.T) {
	// Given: a finished game won by X
	g := newStartedGame(t)
	for i, cell := range []int{0, 3, 1, 4, 2} {
		player := "p1"
		if i%2 == 1 {
			player = "p2"
		}
		g.PlayerAction(player, Move{Cell: cell})
		g.UpdateState()
	}

	// When: reading the result
	result := g.Result()

	// Then: winner, players and a non-negative duration are reported
	require.NotNil(t, result.Winner)
	assert.Equal(t, "X", *result.Winner)
	require.NotNil(t, result.Players["X"])
	assert.Equal(t, "p1", *result.Players["X"])
	require.NotNil(t, result.Players["O"])
	assert.Equal(t, "p2", *result.Players["O"])
	assert.GreaterOrEqual(t, result.Duration, int64(0))
}

func TestGame_Init(t *testing.T) {
	// Given: a game with some progress
	g := newStartedGame(t)
	g.PlayerAction("p1", Move{Cell: 0})
	g.UpdateState()

	// When: the engine is reinitialized
	g.Init()

	// Then: slots, board and turn are fresh
	assert.True(t, g.CanAcceptMorePlayers())
	assert.Equal(t, 0, g.PlayerCount())
	snapshot, ok := g.Snapshot().(Snapshot)
	require.True(t, ok)
	assert.Equal(t, RoleX, snapshot.CurrentTurn)
	assert.Nil(t, snapshot.Winner)
}
