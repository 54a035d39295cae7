package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns sensible defaults for retry behavior
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0, // 1s, 2s, 4s, 8s, 16s
	}
}

// WithExponentialBackoff executes fn with exponential backoff.
// Returns an error only when all attempts are exhausted.
func WithExponentialBackoff(ctx context.Context, log *slog.Logger, cfg Config, operation string, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry",
					"operation", operation, "attempt", attempt)
			}
			return nil
		}

		lastErr = err
		log.Warn("operation failed",
			"operation", operation, "attempt", attempt,
			"max_attempts", cfg.MaxAttempts, "error", err)

		if attempt >= cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled during retry: %w", operation, ctx.Err())
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, cfg.MaxAttempts, lastErr)
}

// WithLinearBackoff executes fn with a constant delay between retries
func WithLinearBackoff(ctx context.Context, log *slog.Logger, maxAttempts int, delay time.Duration, operation string, fn func() error) error {
	cfg := Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: delay,
		MaxDelay:     delay,
		Multiplier:   1.0,
	}
	return WithExponentialBackoff(ctx, log, cfg, operation, fn)
}
