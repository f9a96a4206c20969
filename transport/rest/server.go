package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playmesh/gameroom-backend/internal/room"
)

// Server exposes the room registry over HTTP, including the SSE stream
// gateway that pushes broadcaster payloads to room observers.
type Server struct {
	logger   *slog.Logger
	registry *room.Registry
}

func New(logger *slog.Logger, registry *room.Registry) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		registry: registry,
	}
}

// Start - starts the HTTP server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.routes(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("GET /rooms", that.handleListRooms)
	mux.HandleFunc("POST /rooms", that.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", that.handleRoomMeta)
	mux.HandleFunc("DELETE /rooms/{id}", that.handleDeleteRoom)
	mux.HandleFunc("POST /rooms/{id}/join", that.handleJoin)
	mux.HandleFunc("POST /rooms/{id}/leave", that.handleLeave)
	mux.HandleFunc("POST /rooms/{id}/start", that.handleStart)
	mux.HandleFunc("POST /rooms/{id}/reset", that.handleReset)
	mux.HandleFunc("POST /rooms/{id}/action", that.handleAction)
	mux.HandleFunc("GET /rooms/{id}/subscribe", that.handleSubscribe)

	return mux
}
