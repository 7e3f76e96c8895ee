package llm

import (
	"context"
	"log/slog"
	"time"

	"cemas.ai/backend/common/retry"
)

type retryingClient struct {
	Client
	policy retry.Policy
}

// WithRetry wraps c so every Complete call runs under policy. Transient
// failures are retried; permanent ones and exhaustion are returned as-is.
func WithRetry(c Client, policy retry.Policy) Client {
	return &retryingClient{Client: c, policy: policy}
}

func (r *retryingClient) Complete(ctx context.Context, history []Turn) (string, error) {
	policy := r.policy
	next := policy.OnRetry
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		slog.WarnContext(ctx, "retrying completion",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"kind", KindOf(err))
		if next != nil {
			next(attempt, err, delay)
		}
	}

	return retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return r.Client.Complete(ctx, history)
	})
}
