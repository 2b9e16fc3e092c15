package tcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/usecase"
)

// maxLineBytes bounds a single inbound message.
const maxLineBytes = 64 * 1024

// Server speaks newline-delimited JSON over plain TCP, one goroutine per
// connection.
type Server struct {
	logger      *slog.Logger
	coordinator *usecase.Coordinator
}

func New(logger *slog.Logger, coordinator *usecase.Coordinator) *Server {
	return &Server{
		logger:      logger.With("component", "tcp"),
		coordinator: coordinator,
	}
}

// Start - accepts connections until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		go that.serveConnection(ctx, conn)
	}
}

func (that *Server) serveConnection(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "serveConnection", "remote", conn.RemoteAddr().String())
	defer conn.Close()

	client := newClient(conn)

	log.Info("connection established")

	var participantID string

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var msg protocol.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			if sendErr := client.Send(protocol.NewError(protocol.KindMalformed, "invalid JSON")); sendErr != nil {
				log.Error("failed to report malformed message", "error", sendErr)
			}
			continue
		}

		if participant := that.coordinator.HandleMessage(ctx, client, msg); participant != nil {
			participantID = participant.ID
			log = log.With("participantID", participantID)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("connection read failed", "error", err)
	}

	if participantID != "" {
		that.coordinator.Disconnect(participantID)
	}

	log.Info("connection closed")
}
