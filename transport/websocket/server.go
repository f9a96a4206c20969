package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playmesh/gameroom-backend/internal/broadcast"
	"github.com/playmesh/gameroom-backend/internal/session"
)

// Server is the websocket stream gateway for timer-enabled sessions. Each
// connection subscribes to the session's broadcast topic and forwards every
// payload verbatim.
type Server struct {
	logger      *slog.Logger
	sessions    *session.Manager
	broadcaster *broadcast.Broadcaster
	upgrader    websocket.Upgrader
}

func New(logger *slog.Logger, sessions *session.Manager, broadcaster *broadcast.Broadcaster) *Server {
	return &Server{
		logger:      logger.With("component", "websocket"),
		sessions:    sessions,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Start - starts the websocket server and shuts it down when ctx is
// canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms/{id}/ws", that.handleConnection)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
