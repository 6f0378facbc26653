package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	transient := errors.New("transient")
	attempts := 0

	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, Backoff: time.Millisecond},
		func(err error) bool { return errors.Is(err, transient) },
		func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return transient
			}
			return nil
		})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0

	err := Retry(context.Background(), RetryConfig{MaxRetries: 5, Backoff: time.Millisecond},
		func(error) bool { return false },
		func(ctx context.Context) error {
			attempts++
			return permanent
		})

	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, attempts)
}

func TestRetryExhaustsBudget(t *testing.T) {
	transient := errors.New("transient")
	attempts := 0

	err := Retry(context.Background(), RetryConfig{MaxRetries: 2, Backoff: time.Millisecond},
		func(error) bool { return true },
		func(ctx context.Context) error {
			attempts++
			return transient
		})

	require.ErrorIs(t, err, transient)
	require.Equal(t, 3, attempts)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryConfig{MaxRetries: 3, Backoff: 10 * time.Millisecond},
		func(error) bool { return true },
		func(ctx context.Context) error { return errors.New("boom") })

	require.Error(t, err)
}
