package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ananke-board/ananke/database"
	"github.com/ananke-board/ananke/services"
)

// BoardHandler serves the board document over REST and the websocket
// channel. Both write paths feed the same sync coordinator.
type BoardHandler struct {
	store *database.BoardStore
	sync  *services.SyncCoordinator
	hub   *services.Hub

	// maxBoardBytes caps inbound documents at the transport boundary,
	// keeping inline-encoded media from growing memory without bound.
	maxBoardBytes int64
}

func NewBoardHandler(store *database.BoardStore, sync *services.SyncCoordinator, hub *services.Hub, maxBoardBytes int64) *BoardHandler {
	return &BoardHandler{
		store:         store,
		sync:          sync,
		hub:           hub,
		maxBoardBytes: maxBoardBytes,
	}
}

// GetBoard returns the current board document; any authenticated role
// may read.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.store.GetBoard(r.Context())
	if err != nil {
		log.Printf("Error reading board: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// UpdateBoard accepts a full replacement board document, persists it and
// broadcasts the new state to every connected session.
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBoardBytes)

	var board database.Board
	if err := json.NewDecoder(r.Body).Decode(&board); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Board document too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.sync.Submit(r.Context(), user, &board); err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			writeError(w, http.StatusBadRequest, "Malformed board document")
		case errors.Is(err, services.ErrUnauthorized):
			writeError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, services.ErrInvalidAuthContext):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		default:
			log.Printf("Error saving board: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save board")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleWebSocket upgrades the connection and registers the session.
// Authentication happens before the upgrade (the Auth middleware runs
// first), so unauthenticated connections never see board data.
func (h *BoardHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &services.Client{
		Hub:            h.hub,
		Conn:           conn,
		Send:           make(chan []byte, 256),
		User:           user,
		Sync:           h.sync,
		MaxMessageSize: h.maxBoardBytes,
	}

	h.hub.Register(client)

	// Push current persisted state to this session alone so it starts
	// in sync before any broadcast arrives.
	board, err := h.store.GetBoard(r.Context())
	if err != nil {
		log.Printf("Error reading board for new session: %v", err)
	} else if err := client.QueueBoard(board); err != nil {
		log.Printf("Error sending initial board to %s: %v", user.Name, err)
	}

	go client.WritePump()
	go client.ReadPump()
}
