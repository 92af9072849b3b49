package handlers

import (
	"github.com/dimitrije/aiden-dashboard/internal/middleware"
	"github.com/dimitrije/aiden-dashboard/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// EventsHandler streams the caller's account events. Clients use it to
// refresh their profile after an edit made elsewhere and to drop a session
// once every refresh token has been revoked.
type EventsHandler struct {
	hub EventHubInterface
}

func NewEventsHandler(hub EventHubInterface) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	stream := c.SSE()

	client := &sse.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 16),
	}
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := stream.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := stream.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
