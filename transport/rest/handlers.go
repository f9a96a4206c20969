package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/playmesh/gameroom-backend/internal/apperror"
	"github.com/playmesh/gameroom-backend/internal/game"
	"github.com/playmesh/gameroom-backend/internal/tictactoe"
)

type createRoomRequest struct {
	OwnerID string `json:"ownerId"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type actionRequest struct {
	PlayerID string          `json:"playerId"`
	Action   json.RawMessage `json:"action"`
}

type rawAction struct {
	Type string `json:"type"`
	Cell *int   `json:"cell"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.registry.ListRooms())
}

// handleCreateRoom creates a room with a server-generated id and a fresh
// tic-tac-toe engine attached.
func (that *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleCreateRoom")

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	roomID := uuid.NewString()
	that.registry.AttachGame(roomID, tictactoe.New(), req.OwnerID)

	log.Info("room created", "roomID", roomID, "ownerID", req.OwnerID)

	that.writeJSON(w, http.StatusCreated, that.registry.GetRoomMeta(roomID))
}

// handleRoomMeta answers with a well-formed zero-valued meta for unknown
// ids, so clients render "room not found" uniformly.
func (that *Server) handleRoomMeta(w http.ResponseWriter, r *http.Request) {
	that.writeJSON(w, http.StatusOK, that.registry.GetRoomMeta(r.PathValue("id")))
}

func (that *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	requesterID := r.URL.Query().Get("playerId")

	if !that.registry.DeleteRoom(roomID, requesterID) {
		that.writeJSON(w, http.StatusForbidden, okResponse{OK: false})
		return
	}

	that.writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (that *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	that.handlePlayerOp(w, r, that.registry.AddPlayer)
}

func (that *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	that.handlePlayerOp(w, r, that.registry.RemovePlayer)
}

func (that *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	that.writeResult(w, that.registry.Start(r.PathValue("id")))
}

func (that *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	that.writeResult(w, that.registry.Reset(r.PathValue("id")))
}

func (that *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	action, err := decodeAction(req.Action)
	if err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	that.writeResult(w, that.registry.SubmitAction(r.PathValue("id"), req.PlayerID, action))
}

// handleSubscribe is the SSE stream gateway: every broadcaster payload for
// the room is forwarded verbatim as an SSE data frame. Closing the
// connection removes the player from the room.
func (that *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleSubscribe")

	roomID := r.PathValue("id")
	playerID := r.URL.Query().Get("playerId")

	existing, ok := that.registry.Lookup(roomID)
	if !ok {
		that.writeJSON(w, http.StatusNotFound, errorResponse{Error: apperror.ErrRoomNotFound.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan []byte, 32)
	listener := newChannelListener(events, func() {
		log.Warn("subscriber too slow, dropping stream", "roomID", roomID, "playerID", playerID)
		cancel()
	})

	existing.Subscribe(listener)
	defer existing.Unsubscribe(listener)

	if playerID != "" {
		defer that.registry.RemovePlayer(roomID, playerID)
	}

	log.Info("subscriber connected", "roomID", roomID, "playerID", playerID)

	for {
		select {
		case <-ctx.Done():
			log.Info("subscriber disconnected", "roomID", roomID, "playerID", playerID)
			return
		case message := <-events:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", message); err != nil {
				log.Error("failed to write event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (that *Server) handlePlayerOp(w http.ResponseWriter, r *http.Request, op func(roomID, playerID string) bool) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if req.PlayerID == "" {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "playerId is required"})
		return
	}

	that.writeResult(w, op(r.PathValue("id"), req.PlayerID))
}

// decodeAction turns the raw payload into a typed action exactly once at the
// boundary. Malformed payloads get a typed error, not a runtime cast.
func decodeAction(raw json.RawMessage) (game.Action, error) {
	var action rawAction
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedAction, err)
	}

	if action.Type != "move" || action.Cell == nil {
		return nil, apperror.ErrMalformedAction
	}

	return tictactoe.Move{Cell: *action.Cell}, nil
}

// writeResult maps a rejected operation to 409 so the transport can relay
// "your move was rejected" without guessing from side effects.
func (that *Server) writeResult(w http.ResponseWriter, ok bool) {
	status := http.StatusOK
	if !ok {
		status = http.StatusConflict
	}

	that.writeJSON(w, status, okResponse{OK: ok})
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
