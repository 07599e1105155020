package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"authfort-cli/internal/domain"
	ws "authfort-cli/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 1024,
	CheckOrigin:     loopbackOrigin,
}

// loopbackOrigin accepts non-browser clients and pages served from localhost
func loopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// SnapshotSource provides the session state sent when a subscriber connects
type SnapshotSource interface {
	Snapshot() domain.Session
}

// WebSocketHandler streams session change events
type WebSocketHandler struct {
	hub   *ws.Hub
	store SnapshotSource
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *ws.Hub, store SnapshotSource) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, store: store}
}

// HandleConnection upgrades the request and subscribes it to session events.
// The current session is sent first.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	initial, err := ws.EncodeSessionEvent(h.store.Snapshot())
	if err != nil {
		http.Error(w, `{"error":"Failed to encode session"}`, http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := ws.NewClient(h.hub, conn, uuid.NewString())
	client.Enqueue(initial)

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
