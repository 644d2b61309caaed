package retry

import (
	"context"
	"errors"
	"time"
)

// Policy is a bounded fixed-delay retry policy. Each collaborator gets its
// own instance (gateway polling, ledger writes) instead of inline loops.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

type stopError struct {
	err error
}

func (s *stopError) Error() string { return s.err.Error() }
func (s *stopError) Unwrap() error { return s.err }

// Stop wraps an error so Do returns it immediately without further attempts.
func Stop(err error) error {
	return &stopError{err: err}
}

// Do runs op until it succeeds, returns a non-retryable error, the context
// is cancelled, or the attempts run out. The last error is returned after
// exhaustion.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		var stop *stopError
		if errors.As(err, &stop) {
			return stop.err
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return err
}
