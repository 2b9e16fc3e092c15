package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/config"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/events"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/repository"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/repository/storage"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/session"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/usecase"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/transport/rest"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/transport/tcp"
	"github.com/ekowkaay/tic-tac-toe-multiplayer/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var resultRepo repository.ResultRepository
	var profileRepo repository.ProfileRepository

	if addr := conf.Redis.GetRedisAddr(); addr != "" {
		redisStorage, err := storage.New(ctx, addr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		resultRepo = repository.NewResultRepository(redisStorage.Client)
		profileRepo = repository.NewProfileRepository(redisStorage.Client)

		log.Info("match archive enabled", "redis", addr)
	} else {
		log.Info("match archive disabled, no redis configured")
	}

	publisher := events.NewNoop()
	if conf.NATS.URL != "" {
		natsPublisher, err := events.NewNATS(conf.NATS.URL)
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}
		defer natsPublisher.Close()

		publisher = natsPublisher

		log.Info("event publishing enabled", "nats", conf.NATS.URL)
	}

	coordinator := usecase.NewCoordinator(logger, resultRepo, profileRepo, publisher, session.Config{
		RematchTimeout:     conf.Game.RematchTimeout(),
		RequireFullConsent: conf.Game.RequireFullConsent(),
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.WSPort)
		wsServer := websocket.New(logger, coordinator)
		if wsErr := wsServer.Start(ctx, conf.WSPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		tcpServer := tcp.New(logger, coordinator)
		if tcpErr := tcpServer.Start(ctx, conf.TCPPort); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case err := <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
