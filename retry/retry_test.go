package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func retryTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(t.Context(), Config{MaxAttempts: 3, RetryIf: retryTransient}, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Fatalf("got %q, want %q", got, "ok")
	}
	if calls != 1 {
		t.Fatalf("fn ran %d times, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(t.Context(), Config{MaxAttempts: 5, RetryIf: retryTransient}, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errTransient
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if calls != 3 {
		t.Fatalf("fn ran %d times, want 3", calls)
	}
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, err := Do(t.Context(), Config{MaxAttempts: 5, RetryIf: retryTransient}, func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("got %v, want %v", err, fatal)
	}
	if calls != 1 {
		t.Fatalf("fn ran %d times, want 1", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(t.Context(), Config{MaxAttempts: 3, RetryIf: retryTransient}, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("got %v, want %v", err, errTransient)
	}
	if calls != 3 {
		t.Fatalf("fn ran %d times, want 3", calls)
	}
}

func TestDoNilRetryIfNeverRetries(t *testing.T) {
	calls := 0
	_, err := Do(t.Context(), Config{MaxAttempts: 3}, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("fn ran %d times, want 1", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())

	calls := 0
	cfg := Config{MaxAttempts: 10, BaseDelay: time.Hour, RetryIf: retryTransient}
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, cfg, func(context.Context) (int, error) {
			calls++
			return 0, errTransient
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Fatalf("fn ran %d times, want 1", calls)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	d0 := backoff(cfg, 0)
	d1 := backoff(cfg, 1)
	d5 := backoff(cfg, 5)

	if d0 != 100*time.Millisecond {
		t.Fatalf("attempt 0: got %v, want 100ms", d0)
	}
	if d1 != 200*time.Millisecond {
		t.Fatalf("attempt 1: got %v, want 200ms", d1)
	}
	if d5 != time.Second {
		t.Fatalf("attempt 5: got %v, want cap of 1s", d5)
	}
}

func TestBackoffJitterStaysInBounds(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Jitter: 0.2}

	for range 100 {
		d := backoff(cfg, 0)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±20%% of 100ms", d)
		}
	}
}
