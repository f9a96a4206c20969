package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playmesh/gameroom-backend/internal/game"
)

func newTestRepository(t *testing.T) ResultRepository {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewResultRepository(client)
}

func sampleResult() *game.Result {
	winner := "X"
	playerX := "p1"
	playerO := "p2"

	return &game.Result{
		Winner:   &winner,
		Duration: 42000,
		Players: map[string]*string{
			"X": &playerX,
			"O": &playerO,
		},
	}
}

func TestResultRepository_SaveAndGet(t *testing.T) {
	t.Run("Saved result comes back intact", func(t *testing.T) {
		// Given: a repository and a finished game's result
		repo := newTestRepository(t)
		ctx := context.Background()

		// When: saving and reading it back
		require.NoError(t, repo.Save(ctx, "room-1", sampleResult()))

		got, err := repo.GetByRoomID(ctx, "room-1")
		require.NoError(t, err)

		// Then: winner, duration and both players survive the round trip
		require.NotNil(t, got.Winner)
		assert.Equal(t, "X", *got.Winner)
		assert.Equal(t, int64(42000), got.Duration)
		require.NotNil(t, got.Players["X"])
		assert.Equal(t, "p1", *got.Players["X"])
		require.NotNil(t, got.Players["O"])
		assert.Equal(t, "p2", *got.Players["O"])
	})

	t.Run("A drawn result keeps its nil winner", func(t *testing.T) {
		repo := newTestRepository(t)
		ctx := context.Background()

		draw := sampleResult()
		draw.Winner = nil
		require.NoError(t, repo.Save(ctx, "room-1", draw))

		got, err := repo.GetByRoomID(ctx, "room-1")
		require.NoError(t, err)
		assert.Nil(t, got.Winner)
	})

	t.Run("Getting an unknown room yields ErrResultNotFound", func(t *testing.T) {
		repo := newTestRepository(t)

		_, err := repo.GetByRoomID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrResultNotFound)
	})
}

func TestResultRepository_Delete(t *testing.T) {
	t.Run("Deleted result is gone", func(t *testing.T) {
		// Given: a saved result
		repo := newTestRepository(t)
		ctx := context.Background()
		require.NoError(t, repo.Save(ctx, "room-1", sampleResult()))

		// When: deleting it
		require.NoError(t, repo.DeleteByRoomID(ctx, "room-1"))

		// Then: it can no longer be read
		_, err := repo.GetByRoomID(ctx, "room-1")
		assert.ErrorIs(t, err, ErrResultNotFound)
	})

	t.Run("Deleting an unknown room is not an error", func(t *testing.T) {
		repo := newTestRepository(t)

		assert.NoError(t, repo.DeleteByRoomID(context.Background(), "missing"))
	})
}
