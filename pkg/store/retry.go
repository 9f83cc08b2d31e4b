package store

import (
	"context"
	"errors"
	"time"
)

// Connection retry defaults used by the networked backends.
const (
	DefaultConnectAttempts = 3
	DefaultConnectDelay    = 250 * time.Millisecond
)

// RetryableError marks a transient failure, such as a backend that is not
// accepting connections yet. [Retry] only retries errors wrapped in it.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry runs fn up to attempts times, doubling delay after each retryable
// failure. Other errors are returned immediately, the last retryable error
// once attempts are used up, and ctx.Err() when ctx ends while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.As(err, new(*RetryableError)) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
