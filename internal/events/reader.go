package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Reader blocks for events on one conversation after lastID. It returns the
// ID to resume from, which also moves past entries that could not be decoded.
// No events and a nil error means the block window elapsed.
type Reader interface {
	Read(ctx context.Context, conversationID int64, lastID string, block time.Duration) ([]Event, string, error)
	// Tail returns the ID of the newest entry, or StreamStart when the stream
	// is empty. Reading after it yields only events published from now on,
	// including those published between two reads.
	Tail(ctx context.Context, conversationID int64) (string, error)
}

// StreamStart reads a stream from its first entry.
const StreamStart = "0-0"

type redisReader struct {
	client *redis.Client
	prefix string
}

func NewRedisReader(client *redis.Client, prefix string) Reader {
	return &redisReader{client: client, prefix: prefix}
}

func (r *redisReader) Read(ctx context.Context, conversationID int64, lastID string, block time.Duration) ([]Event, string, error) {
	if lastID == "" {
		lastID = StreamStart
	}

	res, err := r.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{StreamName(r.prefix, conversationID), lastID},
		Block:   block,
		Count:   100,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, lastID, nil
		}
		return nil, lastID, fmt.Errorf("read conversation events: %w", err)
	}

	var out []Event
	for _, stream := range res {
		for _, msg := range stream.Messages {
			lastID = msg.ID
			e, err := decode(msg.ID, msg.Values)
			if err != nil {
				slog.WarnContext(ctx, "skipping undecodable conversation event", "error", err)
				continue
			}
			out = append(out, e)
		}
	}
	return out, lastID, nil
}

func (r *redisReader) Tail(ctx context.Context, conversationID int64) (string, error) {
	msgs, err := r.client.XRevRangeN(ctx, StreamName(r.prefix, conversationID), "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("read conversation event tail: %w", err)
	}
	if len(msgs) == 0 {
		return StreamStart, nil
	}
	return msgs[0].ID, nil
}
