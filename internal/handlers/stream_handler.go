package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"coinkeep/internal/events"
)

// StreamHandler serves change notifications over server-sent events.
type StreamHandler struct {
	bus *events.Bus
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(bus *events.Bus) *StreamHandler {
	return &StreamHandler{bus: bus}
}

// Stream pushes change notifications to the client
// @Summary     Stream change events
// @Description Server-sent event stream of entity-change notifications for the authenticated user. Each event names the topic that changed; clients re-query the matching endpoint.
// @Tags        events
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       topics query string false "Comma-free repeated topic filter, e.g. topics=accounts&topics=transactions"
// @Success     200 "Event stream"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /events [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var topics []events.Topic
	for _, raw := range c.QueryArray("topics") {
		topics = append(topics, events.Topic(raw))
	}

	sub := h.bus.Subscribe(topics...)
	defer sub.Cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			// Each stream only sees its own user's changes.
			if ev.UserID != userID {
				return true
			}
			c.SSEvent("change", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
