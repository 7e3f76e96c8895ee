// Package assistant turns a stored conversation into a model call and folds
// the reply back into the conversation.
package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/common/metrics"
	"cemas.ai/backend/internal/events"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/store"
)

type ReplyStatus string

const (
	ReplyGenerated ReplyStatus = "generated"
	ReplyFailed    ReplyStatus = "failed"
	ReplySkipped   ReplyStatus = "skipped" // non-user messages do not ask for a reply
)

// Turn is the outcome of one incoming message. UserMessage is always set once
// the incoming message is stored. At most one of Reply and ReplyErr is set.
type Turn struct {
	UserMessage *model.Message
	Reply       *model.Message
	ReplyErr    error
}

func (t *Turn) Status() ReplyStatus {
	switch {
	case t.Reply != nil:
		return ReplyGenerated
	case t.ReplyErr != nil:
		return ReplyFailed
	default:
		return ReplySkipped
	}
}

type Orchestrator interface {
	// HandleUserMessage stores the message and, for the user role, asks the
	// model for a reply over the full history. A failed reply is reported in
	// Turn.ReplyErr, not as an error; errors mean persistence failed.
	HandleUserMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*Turn, error)
}

type orchestrator struct {
	messages  store.MessageStore
	client    llm.Client
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewOrchestrator expects client to already carry its retry policy (llm.WithRetry).
func NewOrchestrator(messages store.MessageStore, client llm.Client, publisher events.Publisher, m *metrics.Metrics) Orchestrator {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &orchestrator{
		messages:  messages,
		client:    client,
		publisher: publisher,
		metrics:   m,
	}
}

func (o *orchestrator) HandleUserMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*Turn, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: logger.Ptr(conversationID),
		Component:      "cemas.assistant.orchestrator",
	})

	sc := logger.StartSpan(ctx, "assistant.handle_user_message")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("conversation.id", conversationID),
		attribute.String("message.role", string(role)),
	)

	msg, err := o.messages.Append(ctx, conversationID, role, content)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("storing %s message: %w", role, err)
	}
	turn := &Turn{UserMessage: msg}
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(msg.ID)})

	o.publish(ctx, events.Event{
		ConversationID: conversationID,
		Type:           events.MessageCreated,
		MessageID:      logger.Ptr(msg.ID),
		Role:           string(role),
	})

	if role != model.RoleUser {
		return turn, nil
	}

	// Client disconnects stop here: the history read, the provider call with
	// its retries and the reply write all run to completion.
	ctx = context.WithoutCancel(ctx)

	history, err := o.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		sc.RecordError(err)
		return turn, fmt.Errorf("loading conversation history: %w", err)
	}

	o.publish(ctx, events.Event{ConversationID: conversationID, Type: events.ReplyPending, MessageID: logger.Ptr(msg.ID)})

	text, err := o.client.Complete(ctx, BuildHistory(history))
	if err != nil {
		turn.ReplyErr = err
		o.metrics.RecordAssistantReply(string(ReplyFailed))
		slog.WarnContext(ctx, "assistant reply failed, leaving user turn unanswered",
			"history_len", len(history),
			"kind", llm.KindOf(err),
			"error", err)
		o.publish(ctx, events.Event{
			ConversationID: conversationID,
			Type:           events.ReplyFailed,
			MessageID:      logger.Ptr(msg.ID),
			Error:          FailureReason(err),
		})
		return turn, nil
	}

	reply, err := o.messages.Append(ctx, conversationID, model.RoleAssistant, text)
	if err != nil {
		sc.RecordError(err)
		return turn, fmt.Errorf("storing assistant reply: %w", err)
	}
	turn.Reply = reply
	o.metrics.RecordAssistantReply(string(ReplyGenerated))

	slog.InfoContext(ctx, "assistant reply stored",
		"reply_id", reply.ID,
		"history_len", len(history),
		"reply_len", len(text))

	o.publish(ctx, events.Event{
		ConversationID: conversationID,
		Type:           events.ReplyGenerated,
		MessageID:      logger.Ptr(reply.ID),
		Role:           string(model.RoleAssistant),
	})

	return turn, nil
}

// publish is best effort; a status stream outage never fails a message.
func (o *orchestrator) publish(ctx context.Context, e events.Event) {
	if err := o.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish conversation event", "event_type", e.Type, "error", err)
	}
}
