package websocket

import (
	"context"
	"log/slog"

	"authfort-cli/internal/domain"
	"authfort-cli/internal/observability"
)

// Hub maintains connected subscribers and fans session events out to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Encoded events to fan out
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("event hub shutting down")
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = true
			observability.AgentEventSubscribers.Inc()
			slog.Debug("event subscriber registered", slog.String("subscriber", client.id))

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow subscriber, drop it
					h.unregisterClient(client)
				}
			}
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	observability.AgentEventSubscribers.Dec()
	slog.Debug("event subscriber unregistered", slog.String("subscriber", client.id))
}

func (h *Hub) shutdown() {
	close(h.done)
	for client := range h.clients {
		h.unregisterClient(client)
	}
}

// Broadcast queues message for every subscriber. It is dropped once the hub stopped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// PublishSession broadcasts a session snapshot as an event
func (h *Hub) PublishSession(st domain.Session) {
	data, err := EncodeSessionEvent(st)
	if err != nil {
		slog.Error("failed to encode session event", slog.String("error", err.Error()))
		return
	}
	h.Broadcast(data)
}

// Register adds a client to the hub. It returns false when the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
