package handler

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/tony-c3a/tony-mission-control/internal/event"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
)

const keepAliveComment = ": keepalive\n\n"

// StreamHandler relays bus events to a client as server-sent events.
type StreamHandler struct {
	bus       *event.Bus
	keepAlive time.Duration
	buffer    int
}

func NewStreamHandler(bus *event.Bus, keepAlive time.Duration, buffer int) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &StreamHandler{bus: bus, keepAlive: keepAlive, buffer: buffer}
}

// Stream holds the connection open until the client leaves or a write fails.
// Either way the bus subscription and the keep-alive ticker are released.
func (h *StreamHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ip := c.ClientIP()
	events := make(chan event.Event, h.buffer)
	unsubscribe := h.bus.Subscribe(func(ev event.Event) error {
		select {
		case events <- ev:
		default:
			logger.Debug("stream.drop", "type", ev.Type, "client", ip)
		}
		return nil
	})
	ticker := time.NewTicker(h.keepAlive)
	defer func() {
		ticker.Stop()
		unsubscribe()
		logger.Debug("stream.closed", "client", ip)
	}()

	w := c.Writer
	send := func(ev event.Event) error {
		if err := sse.Encode(w, sse.Event{Data: ev}); err != nil {
			return err
		}
		w.Flush()
		return nil
	}

	if err := send(event.New(event.Connected, nil)); err != nil {
		return
	}
	logger.Debug("stream.open", "client", ip, "subscribers", h.bus.SubscriberCount())

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := send(ev); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, keepAliveComment); err != nil {
				return
			}
			w.Flush()
		}
	}
}
