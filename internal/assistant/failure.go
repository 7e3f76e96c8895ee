package assistant

import (
	"errors"

	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/retry"
)

// FailureReason renders a reply failure for end users. Provider details stay in the logs.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, retry.ErrExhausted) {
		return "The assistant is temporarily unavailable. Please try again in a moment."
	}
	switch llm.KindOf(err) {
	case llm.ProviderUnavailable, llm.ProviderTimeout:
		return "The assistant is temporarily unavailable. Please try again in a moment."
	case llm.MalformedResponse:
		return "The assistant returned an unusable response."
	case llm.InvalidRequest:
		return "The conversation cannot be answered in its current state."
	default:
		return "The assistant could not reply."
	}
}
