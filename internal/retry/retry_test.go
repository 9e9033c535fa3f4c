// internal/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffProgression(t *testing.T) {
	cfg := PipelineConfig(4)

	// Uncapped exponential: 1s, 2s, 4s, 8s after failed attempts 0..3.
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}
	for attempt, w := range want {
		if got := Backoff(attempt, cfg); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}

func TestBackoffCap(t *testing.T) {
	cfg := DefaultConfig()
	if got := Backoff(10, cfg); got != cfg.MaxBackoff {
		t.Errorf("Backoff(10) = %v, want capped %v", got, cfg.MaxBackoff)
	}
}

func TestWithRetryAttemptCount(t *testing.T) {
	cfg := PipelineConfig(2)
	cfg.InitialBackoff = time.Millisecond

	var attempts []int
	err := WithRetry(context.Background(), cfg, func(attempt int) error {
		attempts = append(attempts, attempt)
		return errors.New("always fails")
	})

	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if len(attempts) != 3 {
		t.Fatalf("ran %d attempts, want maxRetries+1 = 3", len(attempts))
	}
	for i, a := range attempts {
		if a != i {
			t.Errorf("attempt index %d reported as %d", i, a)
		}
	}
}

func TestWithRetryStopsOnSuccess(t *testing.T) {
	cfg := PipelineConfig(3)
	cfg.InitialBackoff = time.Millisecond

	calls := 0
	err := WithRetry(context.Background(), cfg, func(attempt int) error {
		calls++
		if attempt < 1 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithRetry failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("ran %d attempts, want 2", calls)
	}
}

func TestWithRetryNonRetryableStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialBackoff = time.Millisecond

	calls := 0
	err := WithRetry(context.Background(), cfg, func(attempt int) error {
		calls++
		return NewHTTPError(404, "404 Not Found", "fetch")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("404 retried %d times, want 1 attempt", calls)
	}
}

func TestWithRetryContextCancelled(t *testing.T) {
	cfg := PipelineConfig(5)
	cfg.InitialBackoff = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := WithRetry(ctx, cfg, func(attempt int) error {
		return errors.New("fails")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
