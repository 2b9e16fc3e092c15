package apperror

import "errors"

var (
	ErrOutOfBounds        = errors.New("cell is out of bounds")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrGameAlreadyOver    = errors.New("game is already over")
	ErrUnknownParticipant = errors.New("participant is not a member of this session")
	ErrSessionNotFound    = errors.New("session not found")
)
