package server

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/arcanaland/cardwall/internal/scene"
)

// sendBuffer is how many frames a slow client may fall behind before
// frames are dropped for it
const sendBuffer = 8

// envelope is every message the server writes to a websocket
type envelope struct {
	Type  string       `json:"type"`
	Frame *scene.Frame `json:"frame,omitempty"`
	Error string       `json:"error,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	return &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
}

// Hub fans frames out to connected websocket clients. It is the
// scene.Renderer of a served wall.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	width   int
	height  int

	dropped atomic.Uint64
}

// NewHub returns an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, clients: make(map[*client]struct{})}
}

// Render broadcasts the frame; clients whose buffer is full skip it
func (h *Hub) Render(f scene.Frame) error {
	data, err := json.Marshal(envelope{Type: "frame", Frame: &f})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// SetSize records the last viewport size
func (h *Hub) SetSize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	h.mu.Unlock()
}

// Size returns the last viewport size
func (h *Hub) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many frames were skipped for slow clients
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client", c.id), zap.Int("clients", n))
}

// CloseAll closes every client connection. Each read pump then fails and
// removes its client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client", c.id), zap.Int("clients", n))
}

// sendTo queues one message for a client; false when it is gone or full
func (h *Hub) sendTo(c *client, msg envelope) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}
