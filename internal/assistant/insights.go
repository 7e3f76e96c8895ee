package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/common/metrics"
	"cemas.ai/backend/internal/model"
)

const insightTemplate = `You are a mental health assistant. Read the conversation below and share observations about how the user seems to be feeling, anything that may be worrying them, and gentle suggestions that could help.
Be empathetic, supportive and professional. Do not diagnose; offer thoughtful observations only.

Conversation history:
%s
Insights:`

type Synthesizer interface {
	// Synthesize derives a summary from history. Nothing is stored.
	Synthesize(ctx context.Context, history []model.Message) (string, error)
}

type synthesizer struct {
	client  llm.Client
	metrics *metrics.Metrics
}

// NewSynthesizer expects client to already carry its retry policy (llm.WithRetry).
func NewSynthesizer(client llm.Client, m *metrics.Metrics) Synthesizer {
	return &synthesizer{client: client, metrics: m}
}

func (s *synthesizer) Synthesize(ctx context.Context, history []model.Message) (string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "cemas.assistant.insights"})

	sc := logger.StartSpan(ctx, "assistant.synthesize_insights")
	defer sc.End()
	ctx = sc.Context()

	prompt := RenderInsightPrompt(history)
	out, err := s.client.Complete(ctx, []llm.Turn{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		sc.RecordError(err)
		s.metrics.RecordInsight("failed")
		slog.WarnContext(ctx, "insight synthesis failed", "history_len", len(history), "error", err)
		return "", fmt.Errorf("synthesizing insights: %w", err)
	}

	s.metrics.RecordInsight("success")
	slog.InfoContext(ctx, "insights synthesized", "history_len", len(history), "insight_len", len(out))
	return out, nil
}

// RenderInsightPrompt embeds history as "role: content" lines, oldest first.
// An empty history still renders a complete prompt.
func RenderInsightPrompt(history []model.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return fmt.Sprintf(insightTemplate, b.String())
}
