// Package events publishes conversation status changes to per-conversation
// Redis streams so clients can follow a slow reply without polling.
// Only status is published, never reply text.
package events

import (
	"fmt"
	"strconv"
	"time"
)

type Type string

const (
	MessageCreated Type = "message_created"
	ReplyPending   Type = "reply_pending"
	ReplyGenerated Type = "reply_generated"
	ReplyFailed    Type = "reply_failed"
)

type Event struct {
	ID             string    `json:"id,omitempty"` // stream entry ID, set on read
	ConversationID int64     `json:"conversation_id,string"`
	Type           Type      `json:"type"`
	MessageID      *int64    `json:"message_id,string,omitempty"`
	Role           string    `json:"role,omitempty"`
	Error          string    `json:"error,omitempty"`
	TraceID        string    `json:"trace_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// StreamName is the Redis stream key for one conversation.
func StreamName(prefix string, conversationID int64) string {
	return fmt.Sprintf("%s:%d", prefix, conversationID)
}

func encode(e Event) map[string]any {
	fields := map[string]any{
		"conversation_id": e.ConversationID,
		"type":            string(e.Type),
		"occurred_at":     e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.MessageID != nil {
		fields["message_id"] = *e.MessageID
	}
	if e.Role != "" {
		fields["role"] = e.Role
	}
	if e.Error != "" {
		fields["error"] = e.Error
	}
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}
	return fields
}

func decode(id string, values map[string]any) (Event, error) {
	e := Event{ID: id}

	convID, err := strconv.ParseInt(str(values["conversation_id"]), 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("decode event %s: conversation_id: %w", id, err)
	}
	e.ConversationID = convID

	e.Type = Type(str(values["type"]))
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode event %s: missing type", id)
	}

	if raw := str(values["message_id"]); raw != "" {
		msgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("decode event %s: message_id: %w", id, err)
		}
		e.MessageID = &msgID
	}

	if raw := str(values["occurred_at"]); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.OccurredAt = t
		}
	}

	e.Role = str(values["role"])
	e.Error = str(values["error"])
	e.TraceID = str(values["trace_id"])
	return e, nil
}

// str reads a stream value; go-redis returns strings on read, tests may pass other scalars.
func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
