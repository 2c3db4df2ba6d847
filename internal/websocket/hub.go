package websocket

import (
	"sync"

	"ai-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Hub tracks live connections per chat session and fans frames out to them.
// It is injected, not global, so tests can run hubs side by side.
type Hub struct {
	// Registered clients map: SessionID -> list of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
	h.mu.Unlock()
	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"session_id": client.SessionID, "identity": client.Identity,
	})
}

// removeClient is idempotent; a client evicted during broadcast and then
// unregistered by its own read pump is removed once.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			client.closeSend()
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
	}
}

// Register adds a client synchronously (used by tests and the handler before
// the pumps start).
func (h *Hub) Register(client *Client) {
	h.addClient(client)
}

// Unregister removes a client. Safe to call multiple times.
func (h *Hub) Unregister(client *Client) {
	h.removeClient(client)
}

// snapshot copies the client slice so delivery never happens under the lock
// and eviction during iteration can't skip receivers.
func (h *Hub) snapshot(sessionID uuid.UUID) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[sessionID]
	if !ok {
		return nil
	}
	out := make([]*Client, len(clients))
	copy(out, clients)
	return out
}

// Broadcast delivers payload to every client on a session. A client whose
// send buffer is full is evicted; the others still receive the frame.
func (h *Hub) Broadcast(sessionID uuid.UUID, payload []byte) {
	for _, client := range h.snapshot(sessionID) {
		if !client.trySend(payload) {
			h.logger.Warn("Hub", "Client send buffer full, evicting", map[string]interface{}{
				"session_id": sessionID, "identity": client.Identity,
			})
			h.removeClient(client)
		}
	}
}

// SessionClientCount reports live connections for one session.
func (h *Hub) SessionClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
