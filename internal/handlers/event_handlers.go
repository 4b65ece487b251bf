package handlers

import (
	"io"
	"net/http"
	"time"

	"lounge_pos_backend/internal/events"
	"lounge_pos_backend/internal/services"
	"lounge_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ActionInitialize is the first event on a new stream.
const ActionInitialize = "initialize"

// EventSource is the subscription side of the live-update hub.
type EventSource interface {
	Subscribe() (string, <-chan events.Event)
	Unsubscribe(id string)
}

// EventHandler streams live updates to terminals over server-sent events.
type EventHandler struct {
	source      EventSource
	saleService services.SaleService
	keepAlive   time.Duration
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(source EventSource, ss services.SaleService) *EventHandler {
	return &EventHandler{source: source, saleService: ss, keepAlive: 25 * time.Second}
}

// Stream sends today's sales summary, then every published event until the
// client disconnects.
func (h *EventHandler) Stream(c *gin.Context) {
	summary, err := h.saleService.GetSalesSummary()
	if err != nil {
		utils.LogError(err, "Stream: Error from saleService.GetSalesSummary")
		respondInternal(c, "Failed to load initial state.")
		return
	}

	id, ch := h.source.Subscribe()
	defer h.source.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent(ActionInitialize, events.Event{ID: id, Action: ActionInitialize, Payload: summary, Time: time.Now()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(event.Action, event)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
