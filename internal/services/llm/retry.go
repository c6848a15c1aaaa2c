package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// Default retry constants for the reasoning model.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// RetryPolicy is a bounded, fixed-delay retry schedule.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first (minimum 1)
	MaxAttempts int

	// Delay is the wait between consecutive attempts
	Delay time.Duration
}

// NewDefaultRetryPolicy returns the default reasoning model retry policy
func NewDefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
	}
}

// permanentError marks an error that must not be retried
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// permanent wraps err so that retry returns it immediately
func permanent(err error) error {
	return &permanentError{err: err}
}

// retry calls fn until it succeeds, returns a permanent error, the context is
// cancelled or the attempts are exhausted. The last error is returned.
func retry(ctx context.Context, logger arbor.ILogger, policy RetryPolicy, operation string, fn func(ctx context.Context) error) error {
	attempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == attempts {
			break
		}

		logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", policy.Delay).
			Err(lastErr).
			Msgf("Retrying %s", operation)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}
