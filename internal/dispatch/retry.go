package dispatch

import (
	"context"
	"time"
)

// RetryWithBackoff attempts op up to maxAttempts times, sleeping
// baseDelay * 2^attempt between failures. The last error is returned
// once attempts are exhausted; the caller decides how to degrade.
func RetryWithBackoff(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() (string, error)) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return "", lastErr
}
