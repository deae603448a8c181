package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ananke-board/ananke/database"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Default cap on inbound payloads when no ceiling is configured.
	// Board documents carry inline-encoded media, so this is generous.
	defaultMaxMessageSize = 100 * 1024 * 1024 // 100MB
)

// Client represents a connected WebSocket session. User is the identity
// established at handshake time; it does not change for the life of the
// connection even if an admin edits the account's role meanwhile.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	User UserContext

	// Sync receives updateBoard payloads from this connection.
	Sync *SyncCoordinator

	// MaxMessageSize caps inbound payloads; zero means the default.
	MaxMessageSize int64
}

// WebSocketMessage is the wire format for both directions: updateBoard
// from clients, boardUpdate (and pong) from the server.
type WebSocketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ReadPump pumps messages from the WebSocket connection into the sync
// coordinator. The channel is fire-and-forget: rejected or failed
// updates are logged and dropped, and the sender only learns of success
// by receiving the boardUpdate broadcast like everyone else.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	limit := c.MaxMessageSize
	if limit <= 0 {
		limit = defaultMaxMessageSize
	}
	c.Conn.SetReadLimit(limit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshalling WebSocket message from %s: %v", c.User.Name, err)
			continue
		}

		switch wsMessage.Type {
		case "ping":
			// Reply with a pong directly to this client only
			pong := WebSocketMessage{Type: "pong"}
			if pongJSON, err := json.Marshal(pong); err == nil {
				c.Send <- pongJSON
			}

		case "updateBoard":
			var board database.Board
			if err := json.Unmarshal(wsMessage.Data, &board); err != nil {
				log.Printf("Dropping malformed board from %s: %v", c.User.Name, err)
				continue
			}

			if err := c.Sync.Submit(context.Background(), c.User, &board); err != nil {
				// No error goes back over the socket; the sender sees
				// no boardUpdate echo and nothing else.
				log.Printf("Dropped board update from %s: %v", c.User.Name, err)
			}

		default:
			log.Printf("Ignoring unknown message type %q from %s", wsMessage.Type, c.User.Name)
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// QueueBoard sends the current board state to this client alone, used
// right after registration so a new session starts from persisted state.
func (c *Client) QueueBoard(board *database.Board) error {
	message, err := boardMessage(board)
	if err != nil {
		return err
	}
	c.Send <- message
	return nil
}

func boardMessage(board *database.Board) ([]byte, error) {
	data, err := json.Marshal(board)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebSocketMessage{Type: "boardUpdate", Data: data})
}

// Hub maintains the set of active clients and broadcasts board state to
// all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastBoard pushes the full board document to every connected
// session, the sender included. Echoing the sender its own submission
// guarantees all clients converge on the persisted document even when a
// client's optimistic local state had drifted.
func (h *Hub) BroadcastBoard(board *database.Board) {
	message, err := boardMessage(board)
	if err != nil {
		log.Printf("Error marshalling board broadcast: %v", err)
		return
	}

	h.broadcast <- message
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Client connected: %s (%s)", client.User.Name, client.User.Role)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("Client disconnected: %s", client.User.Name)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
					// Message sent successfully
				default:
					// Client's send buffer is full, assume disconnected
					log.Printf("Client send buffer full, removing client: %s", client.User.Name)
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}
