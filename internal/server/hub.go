package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bioeval/internal/logging"
)

// Event is a message broadcast to connected websocket clients.
type Event struct {
	Type      string `json:"type"`
	Run       string `json:"run,omitempty"`
	Message   string `json:"message,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Hub fans out run events to websocket subscribers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu    sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an event hub.
func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logging.OrNop(logger),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Subscribe upgrades an HTTP request to a websocket and registers it for
// broadcasts. The connection is read-drained so client closes are noticed.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("Websocket client connected (%d active)", count)

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

// Broadcast sends an event to every connected client. Write failures drop the
// client.
func (h *Hub) Broadcast(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug("Dropping websocket client: %v", err)
			h.remove(conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		_ = conn.Close()
	}
}
