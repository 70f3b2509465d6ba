package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var seen []int
	got, err := Retry(context.Background(), fastRetry(3), func(attempt int) (string, error) {
		seen = append(seen, attempt)
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("expected ok, got %q %v", got, err)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Errorf("unexpected attempts %v", seen)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	last := errors.New("last")
	calls := 0
	_, err := Retry(context.Background(), fastRetry(2), func(attempt int) (int, error) {
		calls++
		if attempt == 2 {
			return 0, last
		}
		return 0, errors.New("first")
	})
	if err != last {
		t.Errorf("expected last error unchanged, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetry_RetryIfStops(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastRetry(5)
	cfg.RetryIf = func(err error) bool { return err != permanent }

	calls := 0
	_, err := Retry(context.Background(), cfg, func(int) (int, error) {
		calls++
		return 0, permanent
	})
	if err != permanent {
		t.Errorf("expected unwrapped permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SingleAttemptNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	cfg := fastRetry(1)
	cfg.RetryIf = func(error) bool { return false }
	_, err := Retry(context.Background(), cfg, func(int) (int, error) { return 0, permanent })
	if err != permanent {
		t.Errorf("expected unwrapped error, got %#v", err)
	}
}

func TestRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastRetry(3), func(int) (int, error) {
		calls++
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

type hintedErr struct{ d time.Duration }

func (e hintedErr) Error() string             { return "slow down" }
func (e hintedErr) RetryAfter() time.Duration { return e.d }

func TestRetry_HonoursRetryAfterHint(t *testing.T) {
	cfg := fastRetry(2)
	cfg.MaxBackoff = 30 * time.Millisecond

	var delays []time.Duration
	cfg.OnRetry = func(_ int, _ error, delay time.Duration) { delays = append(delays, delay) }

	_, _ = Retry(context.Background(), cfg, func(attempt int) (int, error) {
		if attempt == 1 {
			return 0, hintedErr{d: time.Hour}
		}
		return 1, nil
	})
	if len(delays) != 1 || delays[0] != 30*time.Millisecond {
		t.Errorf("expected hint capped at max backoff, got %v", delays)
	}
}

func TestRetryFunc(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastRetry(2), func(int) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("unexpected %v after %d calls", err, calls)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) || DefaultRetryIf(context.DeadlineExceeded) {
		t.Error("context errors must not be retried")
	}
	if !DefaultRetryIf(errors.New("x")) {
		t.Error("plain errors should be retried")
	}
}
