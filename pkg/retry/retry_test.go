package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	config := Config{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}

	calls := 0
	err := Do(context.Background(), config, func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	config := Config{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		Multiplier:     2.0,
	}

	calls := 0
	err := Do(context.Background(), config, func() error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	// Initial attempt plus two retries
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, DefaultConfig(), func() error {
		return errors.New("should not matter")
	})
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"client timeout", errors.New("context deadline exceeded (Client.Timeout)"), true},
		{"io timeout", errors.New("i/o timeout"), true},
		{"rate limited", errors.New("aims: unexpected status 429: slow down"), true},
		{"server error", errors.New("aims: unexpected status 500: oops"), true},
		{"bad gateway", errors.New("aims: unexpected status 502: upstream"), true},
		{"unavailable", errors.New("aims: unexpected status 503: maintenance"), true},
		{"gateway timeout", errors.New("aims: unexpected status 504: slow"), true},
		{"bad request", errors.New("aims: unexpected status 400: invalid article"), false},
		{"unauthorized", errors.New("aims: unexpected status 401: bad token"), false},
		{"not found", errors.New("aims: unexpected status 404: no such store"), false},
		{"eof", errors.New("unexpected EOF"), true},
		{"unknown", errors.New("something else entirely"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
