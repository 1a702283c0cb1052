package api

import (
	"encoding/json"
	"sync"
	"time"

	fiberws "github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Event is pushed to connected clients whenever the engine notifies.
type Event struct {
	Type       string    `json:"type"` // "reminder" or "taken"
	Medication string    `json:"medication"`
	Timestamp  time.Time `json:"timestamp"`
}

// Hub fans engine notifications out to websocket clients. It satisfies
// notify.Notifier so it can sit behind the same fan-out as the log
// notifier. Sends are fire-and-forget; a failed write drops the client.
type Hub struct {
	mu      sync.Mutex
	clients map[*fiberws.Conn]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*fiberws.Conn]struct{}),
		logger:  logger,
	}
}

// Notify implements notify.Notifier.
func (h *Hub) Notify(name string, reminder bool) {
	kind := "taken"
	if reminder {
		kind = "reminder"
	}
	h.Broadcast(Event{
		Type:       kind,
		Medication: name,
		Timestamp:  time.Now(),
	})
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(fiberws.TextMessage, payload); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// serve registers the connection and blocks until the peer disconnects.
func (h *Hub) serve(conn *fiberws.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
