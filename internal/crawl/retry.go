package crawl

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds navigation retries with a fixed backoff. It is internal
// to fetchers; the worker pool never observes individual attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// NewRetryPolicy builds a policy, clamping attempts to at least one.
func NewRetryPolicy(maxAttempts int, backoff time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{MaxAttempts: maxAttempts, Backoff: backoff}
}

// Do runs fn up to MaxAttempts times, sleeping Backoff between attempts.
// Context cancellation is never retried. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || ctx.Err() != nil {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-time.After(p.Backoff):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}
