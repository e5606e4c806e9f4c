package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event types pushed to the dashboard
const (
	MsgAssessmentSubmitted   = "assessment.submitted"
	MsgParticipantRegistered = "participant.registered"
)

// Hub manages the dashboard WebSocket connections. Every connected client
// receives every event.
type Hub struct {
	clients map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *Message

	logger *zap.Logger
}

// Connection represents one dashboard client
type Connection struct {
	Username string
	Send     chan []byte
	Hub      *Hub
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 256),
		logger:     logger,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			h.logger.Debug("dashboard client connected", zap.String("username", conn.Username))

		case conn := <-h.unregister:
			h.mu.Lock()
			if h.clients[conn] {
				delete(h.clients, conn)
				close(conn.Send)
				h.logger.Debug("dashboard client disconnected", zap.String("username", conn.Username))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg)
			h.mu.RLock()
			for conn := range h.clients {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastEvent pushes an event to every dashboard client (implements
// service.Broadcaster).
func (h *Hub) BroadcastEvent(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("event payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.broadcast <- &Message{
		Type:    event,
		Payload: data,
	}
}
