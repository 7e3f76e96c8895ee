package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type redisPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, prefix string, maxLen int64, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisPublisher{
		client: client,
		prefix: prefix,
		maxLen: maxLen,
		logger: logger,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	if e.TraceID == "" {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			e.TraceID = sc.TraceID().String()
		}
	}

	stream := StreamName(p.prefix, e.ConversationID)
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: encode(e),
	}).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}

	p.logger.DebugContext(ctx, "published conversation event", "stream", stream, "event_type", e.Type)
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

type nopPublisher struct{}

// NewNopPublisher is used when Redis is not configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                        { return nil }
