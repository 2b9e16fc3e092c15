package tcp

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
)

// client adapts a TCP connection to the protocol.Sender contract, writing
// one JSON message per line.
type client struct {
	mu   sync.Mutex
	conn net.Conn
}

func newClient(conn net.Conn) *client {
	return &client{conn: conn}
}

func (that *client) Send(msg protocol.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	payload = append(payload, '\n')

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err = that.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
