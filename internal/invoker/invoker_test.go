package invoker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/peredit/internal/llm"
)

type mockClient struct {
	calls    atomic.Int32
	complete func(call int) (string, error)
}

func (m *mockClient) Complete(ctx context.Context, model, systemPrompt, userText string) (string, error) {
	call := int(m.calls.Add(1))
	return m.complete(call)
}

func noSleep(iv *Invoker) *Invoker {
	iv.Sleep = func(time.Duration) {}
	return iv
}

func TestInvoke_SucceedsFirstAttempt(t *testing.T) {
	c := &mockClient{complete: func(int) (string, error) { return "译文", nil }}

	got, err := noSleep(New(3)).Invoke(context.Background(), c, "m", "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文" {
		t.Errorf("expected 译文, got %q", got)
	}
	if c.calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", c.calls.Load())
	}
}

func TestInvoke_RetriesThenSucceeds(t *testing.T) {
	// Fails twice, succeeds on the third attempt within maxRetries=3.
	c := &mockClient{complete: func(call int) (string, error) {
		if call < 3 {
			return "", errors.New("connection reset")
		}
		return "译文", nil
	}}

	got, err := noSleep(New(3)).Invoke(context.Background(), c, "A", "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文" {
		t.Errorf("expected 译文, got %q", got)
	}
	if c.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", c.calls.Load())
	}
}

func TestInvoke_EmptyResponseIsRetried(t *testing.T) {
	c := &mockClient{complete: func(call int) (string, error) {
		if call == 1 {
			return "   \n ", nil
		}
		return "译文", nil
	}}

	got, err := noSleep(New(3)).Invoke(context.Background(), c, "m", "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文" {
		t.Errorf("expected 译文, got %q", got)
	}
	if c.calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", c.calls.Load())
	}
}

func TestInvoke_ExhaustionSurfacesFatal(t *testing.T) {
	c := &mockClient{complete: func(int) (string, error) {
		return "", errors.New("boom")
	}}

	_, err := noSleep(New(3)).Invoke(context.Background(), c, "m", "s", "u")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var fe *FatalError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FatalError, got %T: %v", err, err)
	}
	if fe.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", fe.Attempts)
	}
	var te *TransientError
	if !errors.As(err, &te) {
		t.Error("fatal error should carry the last transient failure")
	}
	if c.calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", c.calls.Load())
	}
}

func TestInvoke_NonRetryableStatusFailsFast(t *testing.T) {
	c := &mockClient{complete: func(int) (string, error) {
		return "", &llm.StatusError{Status: 401}
	}}

	_, err := noSleep(New(3)).Invoke(context.Background(), c, "m", "s", "u")
	if !IsFatal(err) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if c.calls.Load() != 1 {
		t.Errorf("401 must not be retried, got %d calls", c.calls.Load())
	}
}

func TestInvoke_RetryableStatusIsRetried(t *testing.T) {
	c := &mockClient{complete: func(call int) (string, error) {
		if call == 1 {
			return "", &llm.StatusError{Status: 503}
		}
		return "译文", nil
	}}

	got, err := noSleep(New(3)).Invoke(context.Background(), c, "m", "s", "u")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "译文" {
		t.Errorf("expected 译文, got %q", got)
	}
}

func TestInvoke_ExponentialBackoff(t *testing.T) {
	var delays []time.Duration
	c := &mockClient{complete: func(int) (string, error) {
		return "", errors.New("down")
	}}

	iv := New(3)
	iv.Sleep = func(d time.Duration) { delays = append(delays, d) }
	_, _ = iv.Invoke(context.Background(), c, "m", "s", "u")

	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d: %v", len(want), len(delays), delays)
	}
	for i, d := range delays {
		if d != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], d)
		}
	}
}

func TestInvoke_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &mockClient{complete: func(int) (string, error) { return "ignored", nil }}

	_, err := noSleep(New(3)).Invoke(ctx, c, "m", "s", "u")
	if !IsFatal(err) {
		t.Fatalf("expected fatal error on cancelled context, got %v", err)
	}
	if c.calls.Load() != 0 {
		t.Errorf("expected no calls on cancelled context, got %d", c.calls.Load())
	}
}

func TestInvoke_ZeroValueDefaults(t *testing.T) {
	c := &mockClient{complete: func(int) (string, error) { return "译文", nil }}

	var iv Invoker
	iv.Sleep = func(time.Duration) {}
	got, err := iv.Invoke(context.Background(), c, "m", "s", "u")
	if err != nil || got != "译文" {
		t.Fatalf("zero-value invoker should work: %q, %v", got, err)
	}
}
