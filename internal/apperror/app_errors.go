package apperror

import "errors"

var (
	ErrGameEnded      = errors.New("game already ended")
	ErrGameNotStarted = errors.New("game is not started")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")

	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotFound    = errors.New("room not found")
	ErrMalformedAction = errors.New("malformed action payload")
)
