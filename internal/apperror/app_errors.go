package apperror

import "errors"

var (
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidIdentity = errors.New("identity does not match this seat")
	ErrAlreadyInRoom   = errors.New("player is already in a room")
	ErrGameNotActive   = errors.New("game is not active")
	ErrInvalidCell     = errors.New("invalid cell position")
	ErrNotFound        = errors.New("not found")
)
