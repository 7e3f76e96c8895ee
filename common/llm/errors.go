package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/openai/openai-go"
)

var ErrInvalidHistory = errors.New("invalid completion history")

type FailureKind string

const (
	ProviderUnavailable FailureKind = "provider_unavailable"
	ProviderTimeout     FailureKind = "provider_timeout"
	MalformedResponse   FailureKind = "malformed_response"
	InvalidRequest      FailureKind = "invalid_request"
)

// Failure is the only error type Complete returns for provider-side problems.
type Failure struct {
	Kind       FailureKind
	StatusCode int // provider HTTP status, 0 when no response arrived
	Err        error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", f.Kind, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Transient reports whether another attempt may succeed.
func (f *Failure) Transient() bool {
	return f.Kind == ProviderUnavailable || f.Kind == ProviderTimeout
}

// KindOf returns the failure kind of err, or "" when err is not a *Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// classify maps a transport or SDK error from one attempt. attemptCtx is the
// per-attempt context; its deadline firing is a timeout, not a caller abort.
func classify(attemptCtx context.Context, err error) *Failure {
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &Failure{Kind: ProviderTimeout, Err: err}
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Failure{Kind: ProviderUnavailable, StatusCode: apiErr.StatusCode, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &Failure{Kind: MalformedResponse, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Failure{Kind: ProviderTimeout, Err: err}
	}

	return &Failure{Kind: ProviderUnavailable, Err: err}
}
