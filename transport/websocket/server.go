package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/protocol"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/usecase"
)

type Server struct {
	logger      *slog.Logger
	coordinator *usecase.Coordinator
	upgrader    websocket.Upgrader
}

func New(logger *slog.Logger, coordinator *usecase.Coordinator) *Server {
	return &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// Start - starts the WebSocket server and blocks until the context is
// canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection upgrades the request and pumps inbound messages into the
// coordinator until the peer goes away.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection", "remote", r.RemoteAddr)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	client := newClient(conn)

	log.Info("WebSocket connection established")

	var participantID string

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("connection read failed", "error", err)
			}
			break
		}

		var msg protocol.Message
		if err = json.Unmarshal(data, &msg); err != nil {
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

	if participantID != "" {
		that.coordinator.Disconnect(participantID)
	}

	log.Info("WebSocket connection closed")
}
