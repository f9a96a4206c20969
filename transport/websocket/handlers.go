package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/playmesh/gameroom-backend/internal/apperror"
	"github.com/playmesh/gameroom-backend/internal/broadcast"
)

const messageTypeMove = "MOVE"

type clientMessage struct {
	Type     string `json:"type"`
	Position *int   `json:"position"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// handleConnection upgrades the request, joins the player to the session
// (or restores a disconnected one) and pumps messages both ways until the
// connection drops. A drop mid-game starts the disconnect grace period.
func (that *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	roomID := r.PathValue("id")
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	log = log.With("roomID", roomID, "playerID", playerID)

	sess := that.sessions.EnsureSession(roomID)

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	listener := broadcast.NewListener(func(message []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()

		if writeErr := conn.WriteMessage(websocket.TextMessage, message); writeErr != nil {
			log.Error("failed to forward broadcast", "error", writeErr)
		}
	})

	that.broadcaster.AddListener(roomID, listener)
	defer that.broadcaster.RemoveListener(roomID, listener)

	if err = sess.Join(playerID); err != nil {
		log.Info("player rejected", "error", err)
		that.sendError(conn, &writeMu, err.Error())

		return
	}

	defer sess.Leave(playerID)

	log.Info("player connected")

	for {
		var message clientMessage
		if err = conn.ReadJSON(&message); err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		if message.Type != messageTypeMove || message.Position == nil {
			that.sendError(conn, &writeMu, apperror.ErrMalformedAction.Error())
			continue
		}

		if err = sess.Move(playerID, *message.Position); err != nil {
			that.sendError(conn, &writeMu, err.Error())
		}
	}
}

func (that *Server) sendError(conn *websocket.Conn, writeMu *sync.Mutex, message string) {
	writeMu.Lock()
	defer writeMu.Unlock()

	payload, err := json.Marshal(errorMessage{Type: "ERROR", Error: message})
	if err != nil {
		that.logger.Error("failed to marshal error message", "error", err)
		return
	}

	if err = conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		that.logger.Error("failed to send error message", "error", err)
	}
}
