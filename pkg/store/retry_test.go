package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	transient := &RetryableError{Err: errors.New("connection refused")}
	permanent := errors.New("auth failed")

	tests := []struct {
		name      string
		failures  []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"first try", nil, 3, 1, nil},
		{"recovers", []error{transient, transient}, 3, 3, nil},
		{"exhausted", []error{transient, transient, transient}, 3, 3, transient},
		{"permanent", []error{permanent, transient}, 3, 1, permanent},
		{"zero attempts runs once", []error{transient}, 0, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Retry() = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		return &RetryableError{Err: errors.New("down")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	inner := errors.New("timeout")
	err := &RetryableError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("RetryableError should unwrap to its cause")
	}
	if err.Error() != "timeout" {
		t.Errorf("Error() = %q, want %q", err.Error(), "timeout")
	}
}
