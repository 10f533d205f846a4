// Package ws pushes view, selection and insights updates to connected viewers so that
// every open map and table observes the same transitions.
package ws

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
)

// Message types.
const (
	MessageTypeView      = "view"
	MessageTypeSelection = "selection"
	MessageTypeInsights  = "insights"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
)

// Message is one frame sent to viewers.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks connected clients and fans broadcasts out to them in
// connection order. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewHub creates a Hub. Call Run to start it.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    metrics,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				h.remove(c)
			}
			h.logger.Info("websocket hub stopped", "reason", ctx.Err())
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.WebsocketClients.Set(float64(len(h.clients)))
			h.logger.Debug("websocket client connected", "client", c.id, "total_clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Debug("websocket client disconnected", "client", c.id, "total_clients", len(h.clients))
			}
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// Broadcast queues msg for every client. It never blocks; if the queue is
// full the message is dropped and logged.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", "type", msg.Type)
	}
}

func (h *Hub) fanOut(msg Message) {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		if !c.enqueue(msg) {
			h.logger.Warn("websocket client too slow, disconnecting", "client", c.id)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	c.shutdown()
	h.metrics.WebsocketClients.Set(float64(len(h.clients)))
}
