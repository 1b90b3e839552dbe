// Package fanout broadcasts new-post events to connected websocket
// listeners. Delivery is best-effort: no persistence, no acks, and a slow
// or dead client just gets dropped.
package fanout

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const EventNewPost = "new_post"

// Event is the envelope written to every listener.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub tracks connected listeners and fans events out to them.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	events chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		// Buffered so publishers never block on delivery.
		events: make(chan Event, 64),
	}
}

// Run delivers events until the context is canceled. Write errors evict the
// client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case ev := <-h.events:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(ev); err != nil {
					slog.Debug("dropping listener", "error", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish enqueues an event for delivery. If the hub is saturated the event
// is discarded rather than blocking the caller.
func (h *Hub) Publish(ev Event) {
	select {
	case h.events <- ev:
	default:
		slog.Warn("fanout queue full, dropping event", "type", ev.Type)
	}
}

// NewPost publishes the standard new-post event.
func (h *Hub) NewPost(post any) {
	h.Publish(Event{Type: EventNewPost, Payload: post})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the connection as a listener.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Listeners never send anything meaningful, but the connection has to
	// be read for close frames to be processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.clients, conn)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
