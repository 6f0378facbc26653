package resilience

import (
	"context"
	"time"
)

// RetryConfig bounds commit retries around transient store failures.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, Backoff: 250 * time.Millisecond}
}

// Retry runs fn up to MaxRetries+1 times, sleeping Backoff*attempt between
// tries. It retries only when shouldRetry reports the error as transient and
// never retries a context cancellation.
func Retry(ctx context.Context, cfg RetryConfig, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultRetryConfig().Backoff
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Backoff * time.Duration(attempt)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if shouldRetry == nil || !shouldRetry(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
