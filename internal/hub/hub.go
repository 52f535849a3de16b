// Package hub broadcasts match records to websocket observers, so a
// dashboard or a second terminal can watch captures live without tailing
// the log file.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/yosagi/osctap/internal/matchlog"
)

// FeedMessage is the wire format sent to every connected observer.
type FeedMessage struct {
	Type    string `json:"type"`
	TS      string `json:"ts"`
	Matcher string `json:"matcher"`
	Value   string `json:"string"`
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

func New() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan []byte, 256),
	}
}

// Run owns the client set. It exits when ctx is cancelled, closing every
// client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			go client.writePump(ctx)
			go client.readPump(ctx)
			slog.Debug("feed client connected", "client", client.id, "total", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			slog.Debug("feed client disconnected", "client", client.id, "total", h.ClientCount())

		case data := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				select {
				case c.send <- data:
				default:
					// Slow observers lose messages rather than
					// stalling the session.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWebSocket upgrades an observer connection and registers it.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	client := newClient(conn, h)
	select {
	case h.register <- client:
	default:
		conn.Close(websocket.StatusTryAgainLater, "hub busy")
	}
}

// Broadcast queues a message for all observers. It never blocks; if the
// hub's queue is full the message is dropped.
func (h *Hub) Broadcast(msg FeedMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	default:
	}
}

// Sink adapts the hub to the matchlog.Sink interface.
type Sink struct {
	hub *Hub
}

func (h *Hub) Sink() *Sink { return &Sink{hub: h} }

func (s *Sink) Log(rec matchlog.Record) error {
	s.hub.Broadcast(FeedMessage{
		Type:    "match",
		TS:      rec.TS,
		Matcher: rec.Matcher,
		Value:   rec.Value,
	})
	return nil
}
