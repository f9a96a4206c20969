package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playmesh/gameroom-backend/internal/game"
)

var ErrResultNotFound = errors.New("result not found")

// ResultRepository persists emitted game results. The orchestration core
// never reads these back on the hot path; they exist for collaborators.
type ResultRepository interface {
	Save(ctx context.Context, roomID string, result *game.Result) error
	GetByRoomID(ctx context.Context, roomID string) (*game.Result, error)
	DeleteByRoomID(ctx context.Context, roomID string) error
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func (that *dbResult) Save(ctx context.Context, roomID string, result *game.Result) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	resultKey := "result:" + roomID
	if err = that.client.Set(ctx, resultKey, resultJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByRoomID(ctx context.Context, roomID string) (*game.Result, error) {
	resultKey := "result:" + roomID

	response, err := that.client.Get(ctx, resultKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var existingResult game.Result
	if err = json.Unmarshal([]byte(response), &existingResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &existingResult, nil
}

func (that *dbResult) DeleteByRoomID(ctx context.Context, roomID string) error {
	resultKey := "result:" + roomID

	if err := that.client.Del(ctx, resultKey).Err(); err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	return nil
}
