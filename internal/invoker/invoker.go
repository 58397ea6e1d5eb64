// Package invoker wraps a completion backend with bounded retries and
// exponential backoff. It is the only place in the pipeline allowed to talk
// to the network, and it owns the error taxonomy: everything retryable is a
// TransientError absorbed here, everything that escapes is a FatalError.
package invoker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/peredit/internal/llm"
)

// DefaultMaxAttempts is the total number of attempts including the first
// (1 = no retries).
const DefaultMaxAttempts = 3

// ErrEmptyResponse marks an empty or whitespace-only completion. It is
// retryable: models occasionally return nothing under load.
var ErrEmptyResponse = errors.New("empty response from model")

// TransientError is a retryable attempt failure. It never escapes Invoke
// directly; after retries are exhausted the last one is carried inside the
// FatalError chain.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError means the model produced no usable text: retries were
// exhausted, or the backend answered with a non-retryable response.
type FatalError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("model %s failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Invoker retries a completion call with exponential backoff.
// The zero value is usable: DefaultMaxAttempts attempts, 2^attempt-second
// delays. Sleep is overridable for tests.
type Invoker struct {
	MaxAttempts int
	Sleep       func(time.Duration)
}

// New returns an Invoker with the given attempt budget (≤ 0 means
// DefaultMaxAttempts).
func New(maxAttempts int) *Invoker {
	return &Invoker{MaxAttempts: maxAttempts}
}

// Invoke calls client until it yields non-empty text or the attempt budget
// is spent. The backoff before retry i+1 is 2^i seconds. A whitespace-only
// response counts as a failed attempt. Context cancellation stops retrying
// immediately.
func (iv *Invoker) Invoke(ctx context.Context, client llm.Client, model, systemPrompt, userText string) (string, error) {
	attempts := iv.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	sleep := iv.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}
		if err := ctx.Err(); err != nil {
			return "", &FatalError{Model: model, Attempts: attempt, Err: err}
		}

		text, err := client.Complete(ctx, model, systemPrompt, userText)
		if err != nil {
			if !retryable(err) || ctx.Err() != nil {
				return "", &FatalError{Model: model, Attempts: attempt + 1, Err: err}
			}
			lastErr = &TransientError{Err: err}
			continue
		}
		if strings.TrimSpace(text) == "" {
			lastErr = &TransientError{Err: ErrEmptyResponse}
			continue
		}
		return text, nil
	}

	return "", &FatalError{Model: model, Attempts: attempts, Err: lastErr}
}

// retryable classifies an attempt error. Network failures, timeouts, and
// decode errors are retried; a non-temporary HTTP status (bad credential,
// unknown model) is not worth repeating. Caller cancellation is caught by
// the ctx checks in the loop, not here.
func retryable(err error) bool {
	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
