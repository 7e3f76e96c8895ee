// Package retry runs an operation again on transient failure with capped
// exponential delays. It knows nothing about what the operation does.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError carries the last transient failure after every attempt failed.
// errors.Is(err, ErrExhausted) holds and errors.As reaches the wrapped failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrExhausted, e.Err}
}

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration

	// Classify reports whether err is worth another attempt. Defaults to IsTransient.
	Classify func(err error) bool

	// OnRetry runs after a failed attempt, before sleeping for delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// IsTransient honours any error in the chain that exposes Transient() bool.
// Everything else is permanent.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	return false
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Classify == nil {
		p.Classify = IsTransient
	}
	return p
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.MaxDelay,
	}
}

// Do calls op until it succeeds, returns a permanent failure, or MaxAttempts
// is reached. Permanent failures are returned unchanged. Exhaustion returns
// *ExhaustedError wrapping the last failure.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var (
		attempts int
		last     error
	)

	res, err := backoff.Retry(ctx,
		func() (T, error) {
			attempts++
			v, err := op(ctx)
			if err == nil {
				return v, nil
			}
			last = err
			if !p.Classify(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if p.OnRetry != nil {
				p.OnRetry(attempts, err, delay)
			}
		}),
	)
	if err == nil {
		return res, nil
	}

	// backoff checks the try budget before unwrapping permanent errors,
	// so a permanent failure on the final attempt still arrives wrapped.
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return res, permanent.Unwrap()
	}

	if last != nil && !p.Classify(last) {
		return res, last
	}

	if attempts >= p.MaxAttempts && errors.Is(err, last) {
		return res, &ExhaustedError{Attempts: attempts, Err: last}
	}

	// Context ended while waiting between attempts.
	return res, fmt.Errorf("retry interrupted after %d attempts: %w", attempts, errors.Join(err, last))
}
