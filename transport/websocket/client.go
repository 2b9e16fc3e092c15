package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
)

// client adapts one gorilla connection to the protocol.Sender contract. The
// write mutex serializes broadcasts arriving from the opponent's goroutine
// with replies from our own read loop.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn}
}

func (that *client) Send(msg protocol.Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
