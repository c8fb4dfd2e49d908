// Package retry provides a small bounded-retry helper for browser
// operations that fail transiently, e.g. reading a view that has not
// finished rendering yet.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Do runs op up to attempts times, sleeping delay between attempts.
// It stops early when the context is done; context errors are never
// retried. The last error is returned when every attempt fails.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
