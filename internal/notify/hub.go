// Package notify pushes console events to connected dashboards.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"diamondhost/admin-console/internal/model"
)

const (
	EventNewEstates     = "estates.new"
	EventNewPosts       = "posts.new"
	EventSessionEnded   = "session.ended"
	EventEstateDecision = "estate.decided"
)

type Event struct {
	Type      string    `json:"type"`
	Items     any       `json:"items,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Client struct {
	ID        string
	SessionID string
	Role      model.Role
	Send      chan []byte
}

func NewClient(id, sessionID string, role model.Role) *Client {
	return &Client{ID: id, SessionID: sessionID, Role: role, Send: make(chan []byte, 64)}
}

type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log, clients: make(map[string]*Client)}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

// Unregister removes the client and closes its send channel. Calling it
// twice is safe.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends the event to every client whose role is listed, or to all
// clients when roles is empty. Slow clients lose the message.
func (h *Hub) Broadcast(event Event, roles ...model.Role) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if len(roles) > 0 && !hasRole(roles, client.Role) {
			continue
		}
		h.deliver(client, payload)
	}
}

// Notify sends the event to the connections of one session.
func (h *Hub) Notify(sessionID string, event Event) {
	payload, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.SessionID == sessionID {
			h.deliver(client, payload)
		}
	}
}

// SessionEnded is shaped to be the session store's end hook.
func (h *Hub) SessionEnded(sessionID, reason string) {
	h.Notify(sessionID, Event{Type: EventSessionEnded, Reason: reason})
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("encode event", "type", event.Type, "err", err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.Send <- payload:
	default:
		h.log.Warn("drop message for client", "client", client.ID)
	}
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
