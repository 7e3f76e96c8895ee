package llm

import (
	"context"
	"fmt"
	"time"

	"cemas.ai/backend/common/metrics"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the history sent to the provider.
type Turn struct {
	Role    Role
	Content string
}

// Client produces the next assistant turn for a history whose last turn is
// the user's input. Every earlier turn is prior context in chronological order.
// Implementations hold no per-call state and are safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, history []Turn) (string, error)
	Model() string
}

// Config is fixed per deployment.
type Config struct {
	APIKey         string // Required
	BaseURL        string // OpenAI-compatible endpoint; empty means api.openai.com
	Model          string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration // per attempt; zero disables
	SystemPrompt   string        // optional, prepended to every request

	Metrics *metrics.Metrics
}

// ValidateHistory enforces the input contract: non-empty, known roles, user last.
func ValidateHistory(history []Turn) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: empty history", ErrInvalidHistory)
	}
	for i, t := range history {
		if t.Role != RoleUser && t.Role != RoleAssistant {
			return fmt.Errorf("%w: turn %d has role %q", ErrInvalidHistory, i, t.Role)
		}
	}
	if last := history[len(history)-1]; last.Role != RoleUser {
		return fmt.Errorf("%w: last turn has role %q, want %q", ErrInvalidHistory, last.Role, RoleUser)
	}
	return nil
}
