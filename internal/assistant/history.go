package assistant

import (
	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/internal/model"
)

// BuildHistory turns stored messages into provider turns, keeping their order.
// It is rebuilt on every call and never persisted.
func BuildHistory(msgs []model.Message) []llm.Turn {
	turns := make([]llm.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = llm.Turn{Role: llm.Role(m.Role), Content: m.Content}
	}
	return turns
}
