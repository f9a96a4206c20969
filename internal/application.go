package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/playmesh/gameroom-backend/internal/broadcast"
	"github.com/playmesh/gameroom-backend/internal/config"
	"github.com/playmesh/gameroom-backend/internal/repository"
	"github.com/playmesh/gameroom-backend/internal/repository/storage"
	"github.com/playmesh/gameroom-backend/internal/room"
	"github.com/playmesh/gameroom-backend/internal/session"
	"github.com/playmesh/gameroom-backend/transport/rest"
	"github.com/playmesh/gameroom-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application. Every service is constructed here and
// injected explicitly; nothing lives in package-level state.
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

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	resultRepo := repository.NewResultRepository(redisStorage.Connection)

	broadcaster := broadcast.New(logger)
	registry := room.NewRegistry(logger, broadcaster)
	sessions := session.NewManager(logger, broadcaster, resultRepo, conf.Game.TurnTimeout, conf.Game.DisconnectTimeout)

	// run HTTP server with the SSE gateway
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, registry)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server for timer-enabled sessions
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, sessions, broadcaster)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
