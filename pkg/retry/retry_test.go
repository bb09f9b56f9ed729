package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fakeSleep(waits *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func TestRetrier_Do_SucceedsAfterTwoFailures(t *testing.T) {
	var waits []time.Duration
	r := New()
	r.Sleep = fakeSleep(&waits)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(waits) != 2 || waits[0] != 2*time.Second || waits[1] != 4*time.Second {
		t.Errorf("Expected waits [2s 4s], got %v", waits)
	}
}

func TestRetrier_Do_FirstTrySucceedsWithoutWaiting(t *testing.T) {
	var waits []time.Duration
	r := New()
	r.Sleep = fakeSleep(&waits)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if len(waits) != 0 {
		t.Errorf("Expected no waits, got %v", waits)
	}
}

func TestRetrier_Do_ExhaustsAttempts(t *testing.T) {
	var waits []time.Duration
	r := New()
	r.Sleep = fakeSleep(&waits)

	cause := errors.New("connection refused")
	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return cause
	})

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Expected ErrRetriesExhausted, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to carry the last cause, got %v", err)
	}
	if len(waits) != 2 {
		t.Errorf("Expected 2 waits, got %v", waits)
	}
}

func TestRetrier_Do_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New()
	calls := 0
	err := r.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no calls on cancelled context, got %d", calls)
	}
}

func TestRetrier_Do_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := New()
	r.Backoff = Linear(time.Hour)

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		calls++
		return errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestLinear(t *testing.T) {
	backoff := Linear(time.Second)

	if d := backoff(1); d != 2*time.Second {
		t.Errorf("Expected 2s after attempt 1, got %v", d)
	}
	if d := backoff(2); d != 4*time.Second {
		t.Errorf("Expected 4s after attempt 2, got %v", d)
	}
}
