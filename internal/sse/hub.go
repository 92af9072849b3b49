// Package sse fans account events out to the event streams a user holds
// open. Every client belongs to one user and only sees that user's events.
package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

const (
	EventProfileUpdated  = "profile_updated"
	EventSessionsRevoked = "sessions_revoked"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type ProfileUpdatedEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	UpdatedBy uuid.UUID `json:"updated_by"`
}

type SessionsRevokedEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type UserMessage struct {
	UserID uuid.UUID
	Event  Event
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *UserMessage
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *UserMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is done. On exit every client's Send channel is
// closed and later calls on the hub return immediately.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.UserID != msg.UserID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow reader, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	close(h.done)
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected counts the open streams of userID.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.UserID == userID {
			n++
		}
	}
	return n
}

func (h *Hub) publish(userID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &UserMessage{UserID: userID, Event: event}:
	case <-h.done:
	}
}

func (h *Hub) BroadcastProfileUpdate(userID, updatedBy uuid.UUID) {
	h.publish(userID, Event{
		Type: EventProfileUpdated,
		Data: ProfileUpdatedEvent{UserID: userID, UpdatedBy: updatedBy},
	})
}

func (h *Hub) BroadcastSessionsRevoked(userID uuid.UUID) {
	h.publish(userID, Event{
		Type: EventSessionsRevoked,
		Data: SessionsRevokedEvent{UserID: userID},
	})
}
