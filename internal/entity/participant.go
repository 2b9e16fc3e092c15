package entity

import (
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
)

// Participant is one connected player identity. The connection handle is an
// opaque attribute; the explicit ID is the sole key used across the core.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar,omitempty"`
	Mark        string `json:"mark,omitempty"`

	Conn protocol.Sender `json:"-"`
}
