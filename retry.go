package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy wraps a fallible operation with bounded attempts and
// exponential backoff. All failures are treated as retryable; whether a
// source's final failure is terminal is the caller's decision, and it
// is never terminal for the whole run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// DefaultRetryPolicy matches the per-source defaults: 3 attempts with a
// 500ms base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do invokes op up to MaxAttempts times, waiting BaseDelay * 2^(n-1)
// between attempts. It returns the number of attempts used and, on
// exhaustion, the last error wrapped with the attempt count. The wait
// honors ctx cancellation without blocking sibling operations.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		delay := p.BaseDelay << (attempt - 1)
		if p.Jitter {
			if quarter := int64(delay) / 4; quarter > 0 {
				delay += time.Duration(rand.Int63n(quarter))
			}
		}
		debugLog("retrying after error (attempt %d/%d, delay %s): %v", attempt, attempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("retry canceled after %d attempts: %w", attempt, ctx.Err())
		}
	}

	return attempts, fmt.Errorf("exceeded max retries after %d attempts: %w", attempts, lastErr)
}
