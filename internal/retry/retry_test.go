package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	calls := 0
	result, retries, err := Do(context.Background(), fastConfig(), "op", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 || retries != 0 {
		t.Fatalf("unexpected result=%q calls=%d retries=%d", result, calls, retries)
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	calls := 0
	result, retries, err := Do(context.Background(), fastConfig(), "op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Fatalf("unexpected result: %q", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Fatalf("expected 2 retries, got %d", retries)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	_, retries, err := Do(context.Background(), fastConfig(), "op", func(context.Context) (int, error) {
		calls++
		return 0, fatal
	})

	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 || retries != 0 {
		t.Fatalf("expected single attempt, got calls=%d retries=%d", calls, retries)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, retries, err := Do(context.Background(), fastConfig(), "op", func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if retries != 2 {
		t.Fatalf("expected 2 retries, got %d", retries)
	}
}

func TestDoHonorsCancellationBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig()
	cfg.BaseDelay = time.Minute

	calls := 0
	_, _, err := Do(ctx, cfg, "op", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestDoBoundsStalledAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.AttemptTimeout = 5 * time.Millisecond

	calls := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, err := Do(context.Background(), cfg, "op", func(ctx context.Context) (int, error) {
			calls++
			<-ctx.Done()
			return 0, ctx.Err()
		})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline error, got %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stalled attempts must be cut off by the attempt timeout")
	}

	// Deadline expiry counts as transient even though fastConfig's
	// classifier does not recognize context errors.
	if calls != cfg.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", cfg.MaxAttempts, calls)
	}
}

func TestDoDoesNotRetryParentDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	cfg := fastConfig()
	cfg.AttemptTimeout = time.Minute

	calls := 0
	_, retries, err := Do(ctx, cfg, "op", func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if calls != 1 || retries != 0 {
		t.Fatalf("a dead run context must not be retried, got calls=%d retries=%d", calls, retries)
	}
}

func TestDelayCapAndGrowth(t *testing.T) {
	cfg := Config{
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
		Multiplier: 2.0,
	}

	if d := cfg.delay(0); d != time.Second {
		t.Fatalf("unexpected first delay: %v", d)
	}
	if d := cfg.delay(1); d != 2*time.Second {
		t.Fatalf("unexpected second delay: %v", d)
	}
	if d := cfg.delay(10); d != 4*time.Second {
		t.Fatalf("delay must be capped, got %v", d)
	}
}
