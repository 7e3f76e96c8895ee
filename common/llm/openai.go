package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/common/metrics"
)

const (
	defaultModel     = "meta-llama/llama-4-maverick-17b-128e-instruct"
	defaultMaxTokens = 4096
)

type openaiClient struct {
	client       openai.Client
	model        string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	systemPrompt string
	metrics      *metrics.Metrics
}

// New creates a Client for any OpenAI-compatible Chat Completions endpoint.
// The SDK's own retries are disabled; wrap the result with WithRetry.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &openaiClient{
		client:       openai.NewClient(opts...),
		model:        model,
		temperature:  cfg.Temperature,
		maxTokens:    maxTokens,
		timeout:      cfg.RequestTimeout,
		systemPrompt: cfg.SystemPrompt,
		metrics:      cfg.Metrics,
	}, nil
}

func (c *openaiClient) Model() string {
	return c.model
}

func (c *openaiClient) Complete(ctx context.Context, history []Turn) (string, error) {
	if err := ValidateHistory(history); err != nil {
		return "", &Failure{Kind: InvalidRequest, Err: err}
	}

	sc := logger.StartSpan(ctx, "llm.complete")
	defer sc.End()
	ctx = sc.Context()

	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    c.convertTurns(history),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(attemptCtx, params)
	duration := time.Since(start)
	if err != nil {
		// The caller gave up; that is neither transient nor the provider's fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			sc.RecordError(ctxErr)
			return "", fmt.Errorf("completion aborted: %w", errors.Join(ctxErr, err))
		}
		failure := classify(attemptCtx, err)
		c.record(ctx, sc, failure, duration)
		return "", failure
	}

	if len(resp.Choices) == 0 {
		failure := &Failure{Kind: MalformedResponse, Err: errors.New("no choices in response")}
		c.record(ctx, sc, failure, duration)
		return "", failure
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		failure := &Failure{
			Kind: MalformedResponse,
			Err:  fmt.Errorf("empty content (finish_reason %q)", resp.Choices[0].FinishReason),
		}
		c.record(ctx, sc, failure, duration)
		return "", failure
	}

	c.metrics.RecordCompletionAttempt("success", duration)
	slog.DebugContext(ctx, "llm completion finished",
		"model", c.model,
		"turns", len(history),
		"duration_ms", duration.Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason)

	return content, nil
}

func (c *openaiClient) record(ctx context.Context, sc *logger.SpanContext, f *Failure, d time.Duration) {
	sc.RecordError(f)
	c.metrics.RecordCompletionAttempt(string(f.Kind), d)
	slog.WarnContext(ctx, "llm completion attempt failed",
		"model", c.model,
		"kind", f.Kind,
		"status_code", f.StatusCode,
		"duration_ms", d.Milliseconds(),
		"error", logger.Truncate(f.Err.Error(), 500))
}

func (c *openaiClient) convertTurns(history []Turn) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)

	if c.systemPrompt != "" {
		result = append(result, openai.SystemMessage(c.systemPrompt))
	}

	for _, t := range history {
		switch t.Role {
		case RoleUser:
			result = append(result, openai.UserMessage(t.Content))
		case RoleAssistant:
			result = append(result, openai.AssistantMessage(t.Content))
		}
	}

	return result
}
