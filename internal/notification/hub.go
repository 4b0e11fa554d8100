package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub maintains the active websocket connections, one per profile
type Hub struct {
	clients    map[int64]*Client
	clientsMux sync.RWMutex

	register   chan *Client
	unregister chan *Client

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[int64]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	defer h.cleanup()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	// A new connection replaces any older one for the same profile
	if old, exists := h.clients[client.profileID]; exists {
		old.Close()
	}
	h.clients[client.profileID] = client

	h.logger.Info("notification client connected",
		"profile_id", client.profileID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if current, exists := h.clients[client.profileID]; exists && current == client {
		client.Close()
		delete(h.clients, client.profileID)

		h.logger.Info("notification client disconnected",
			"profile_id", client.profileID, "total", len(h.clients))
	}
}

// SendToProfile pushes a frame to a connected profile. Returns false when
// the profile has no live connection.
func (h *Hub) SendToProfile(profileID int64, message WSMessage) bool {
	h.clientsMux.RLock()
	client, exists := h.clients[profileID]
	h.clientsMux.RUnlock()

	if !exists {
		return false
	}

	data, err := json.Marshal(message)
	if err != nil {
		return false
	}

	if client.TrySend(data) {
		return true
	}

	// Slow consumer or a connection already torn down, drop it
	go func() { h.unregister <- client }()
	return false
}

func (h *Hub) IsOnline(profileID int64) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	_, exists := h.clients[profileID]
	return exists
}

func (h *Hub) ActiveConnections() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

func (h *Hub) Shutdown() {
	h.cancel()
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for _, client := range h.clients {
		client.Close()
	}
	h.clients = make(map[int64]*Client)
}
