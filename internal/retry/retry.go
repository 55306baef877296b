package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/util"
)

// Config is the per-call retry policy. Retries are always scoped to a single
// external call, never to a whole stage.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration
	// Multiplier grows the delay between attempts.
	Multiplier float64
	// JitterRatio (0-1) randomizes delays to avoid synchronized retries
	// against the remote source.
	JitterRatio float64
	// AttemptTimeout bounds a single attempt. Zero disables the bound, so
	// only callees with their own deadline handling should run without it.
	AttemptTimeout time.Duration
	// Retryable classifies errors. When nil nothing is retried.
	Retryable func(error) bool
	// Logger receives per-retry debug records. Optional.
	Logger *zap.Logger
}

// DefaultConfig returns the stock policy: 3 attempts for retryable failures,
// exponential backoff with base 1s capped at 30s, jittered, each attempt
// bounded to one minute.
func DefaultConfig(retryable func(error) bool, logger *zap.Logger) Config {
	return Config{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterRatio:    0.2,
		AttemptTimeout: time.Minute,
		Retryable:      retryable,
		Logger:         logger,
	}
}

// Do executes fn until it succeeds, the error is classified non-retryable, or
// attempts run out. It returns the result, the number of retried failures,
// and the final error.
func Do[T any](ctx context.Context, cfg Config, op string, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	retries := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := runAttempt(ctx, cfg, fn)
		if err == nil {
			return result, retries, nil
		}

		lastErr = err

		if !cfg.retryable(ctx, err) {
			return zero, retries, err
		}

		if attempt == attempts {
			break
		}

		retries++
		delay := cfg.delay(attempt - 1)

		if cfg.Logger != nil {
			cfg.Logger.Debug("retrying after failure",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", attempts),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}

		if err := util.WaitFor(ctx, delay); err != nil {
			return zero, retries, err
		}
	}

	return zero, retries, lastErr
}

// runAttempt runs fn once under the per-attempt deadline.
func runAttempt[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	if cfg.AttemptTimeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
	defer cancel()

	return fn(attemptCtx)
}

// retryable classifies a failed attempt. An attempt that outlived its own
// deadline while the parent context is still alive counts as a transient
// failure even when the classifier does not recognize it.
func (c Config) retryable(ctx context.Context, err error) bool {
	if c.Retryable != nil && c.Retryable(err) {
		return true
	}
	if c.AttemptTimeout <= 0 || ctx.Err() != nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// delay computes the exponential backoff for a given zero-based attempt,
// jittered uniformly within the configured ratio.
func (c Config) delay(attempt int) time.Duration {
	d := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt))

	if max := float64(c.MaxDelay); max > 0 && d > max {
		d = max
	}

	if c.JitterRatio > 0 {
		jitter := d * c.JitterRatio * (rand.Float64()*2 - 1)
		d += jitter
	}

	return time.Duration(d)
}
