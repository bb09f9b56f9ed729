package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRetriesExhausted = errors.New("retries exhausted")

const DefaultAttempts = 3

// BackoffFunc returns the wait before the next try, given the number of
// the attempt that just failed (1-based).
type BackoffFunc func(attempt int) time.Duration

// Linear waits attempt * 2 units after each failed attempt: 2u, 4u, ...
func Linear(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * 2 * unit
	}
}

type SleepFunc func(ctx context.Context, d time.Duration) error

type Retrier struct {
	Attempts int
	Backoff  BackoffFunc
	Sleep    SleepFunc
}

func New() *Retrier {
	return &Retrier{
		Attempts: DefaultAttempts,
		Backoff:  Linear(time.Second),
		Sleep:    sleepContext,
	}
}

// Do runs op until it succeeds or Attempts tries are spent. The final
// error wraps both ErrRetriesExhausted and the last underlying cause.
func (r *Retrier) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt < r.Attempts {
			if err := r.Sleep(ctx, r.Backoff(attempt)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.Attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
