package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/services"
)

const defaultKeepAlive = 25 * time.Second

// EventsHandler streams committed task events as server-sent events.
type EventsHandler struct {
	source    services.EventSource
	keepAlive time.Duration
	log       *logrus.Logger
}

func NewEventsHandler(source services.EventSource, log *logrus.Logger) *EventsHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EventsHandler{source: source, keepAlive: defaultKeepAlive, log: log}
}

// GET /tasks/events?task_id=...
func (h *EventsHandler) Stream(c *gin.Context) {
	if _, ok := sessionOf(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	taskID := c.Query("task_id")
	events, cancel := h.source.Subscribe(taskID)
	defer cancel()

	entry := h.log.WithField("task_id", taskID)
	entry.Info("[events][subscribe]")
	defer entry.Info("[events][unsubscribe]")

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Content-Type", "text/event-stream")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Type), ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
