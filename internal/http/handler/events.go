package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cemas.ai/backend/internal/events"
	"cemas.ai/backend/internal/service"
)

const (
	defaultEventsBlock = 25 * time.Second
	eventsErrorBackoff = time.Second
)

// EventsHandler streams a conversation's status events as server-sent events.
type EventsHandler struct {
	conversationService service.ConversationService
	reader              events.Reader
	block               time.Duration
}

// NewEventsHandler returns a handler that answers 503 when reader is nil.
// block bounds each read and therefore the keepalive interval; zero means 25s.
func NewEventsHandler(conversationService service.ConversationService, reader events.Reader, block time.Duration) *EventsHandler {
	if block <= 0 {
		block = defaultEventsBlock
	}
	return &EventsHandler{
		conversationService: conversationService,
		reader:              reader,
		block:               block,
	}
}

func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	if h.reader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream not configured"})
		return
	}

	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.conversationService.Authorize(ctx, user.ID, convID); err != nil {
		writeConversationError(c, err, "failed to open event stream")
		return
	}

	// New-only streams start from the tail as of now; "$" on every read drops
	// events published between reads.
	lastID := c.Query("last_id")
	if lastID == "" || lastID == "$" {
		tail, err := h.reader.Tail(ctx, convID)
		if err != nil {
			slog.WarnContext(ctx, "conversation event tail lookup failed", "error", err, "conversation_id", convID)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
			return
		}
		lastID = tail
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	setSSEHeaders(c.Writer)
	c.Status(http.StatusOK)

	sseWrite(c.Writer, "", "ping", "ready")
	flusher.Flush()

	for {
		if ctx.Err() != nil {
			return
		}

		evts, next, err := h.reader.Read(ctx, convID, lastID, h.block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "conversation event read failed", "error", err, "conversation_id", convID)
			sseWrite(c.Writer, "", "error", map[string]string{"error": "event stream interrupted"})
			flusher.Flush()

			select {
			case <-ctx.Done():
				return
			case <-time.After(eventsErrorBackoff):
			}
			continue
		}
		lastID = next

		if len(evts) == 0 {
			sseWrite(c.Writer, "", "ping", time.Now().UTC().Format(time.RFC3339Nano))
			flusher.Flush()
			continue
		}

		for _, e := range evts {
			sseWrite(c.Writer, e.ID, "status", e)
		}
		flusher.Flush()
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}

// sseWrite writes one event. A non-empty id lets clients resume with last_id.
func sseWrite(w http.ResponseWriter, id, event string, data any) {
	payload := marshalPayload(data)
	if id != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", id)
	}
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	for _, line := range strings.Split(payload, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}

func marshalPayload(data any) string {
	switch payload := data.(type) {
	case string:
		return payload
	case []byte:
		return string(payload)
	default:
		bytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Sprintf("%v", data)
		}
		return string(bytes)
	}
}
