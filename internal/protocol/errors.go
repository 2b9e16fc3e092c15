package protocol

import (
	"errors"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/apperror"
)

// Error kinds reported back to the originating participant. These mirror the
// sentinel errors in apperror; KindMalformed covers payloads that never reach
// the session logic.
const (
	KindOutOfBounds        = "out_of_bounds"
	KindCellOccupied       = "cell_occupied"
	KindNotYourTurn        = "not_your_turn"
	KindGameAlreadyOver    = "game_already_over"
	KindUnknownParticipant = "unknown_participant"
	KindSessionNotFound    = "session_not_found"
	KindMalformed          = "malformed_message"
	KindInternal           = "internal"
)

// ErrorKindOf - maps a core error onto its wire kind.
func ErrorKindOf(err error) string {
	switch {
	case errors.Is(err, apperror.ErrOutOfBounds):
		return KindOutOfBounds
	case errors.Is(err, apperror.ErrCellOccupied):
		return KindCellOccupied
	case errors.Is(err, apperror.ErrNotYourTurn):
		return KindNotYourTurn
	case errors.Is(err, apperror.ErrGameAlreadyOver):
		return KindGameAlreadyOver
	case errors.Is(err, apperror.ErrUnknownParticipant):
		return KindUnknownParticipant
	case errors.Is(err, apperror.ErrSessionNotFound):
		return KindSessionNotFound
	default:
		return KindInternal
	}
}

// NewError - builds an error envelope for the originating participant.
func NewError(kind, detail string) Message {
	return New(TypeError, ErrorPayload{Kind: kind, Detail: detail})
}
