// internal/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDelaySequence(t *testing.T) {
	p := Policy{MaxAttempts: 6, BaseDelay: 1000 * time.Millisecond, CapDelay: 8000 * time.Millisecond}

	prev := time.Duration(0)
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		d := p.Delay(attempt)
		if d < prev {
			t.Errorf("Delay(%d) = %v, decreased from %v", attempt, d, prev)
		}
		if d > p.CapDelay {
			t.Errorf("Delay(%d) = %v exceeds cap %v", attempt, d, p.CapDelay)
		}
		prev = d
	}

	assert.Equal(t, 1000*time.Millisecond, p.Delay(0))
	assert.Equal(t, 1500*time.Millisecond, p.Delay(1))
	assert.Equal(t, 2250*time.Millisecond, p.Delay(2))
	// 1000 * 1.5^5 = 7593.75ms, still under cap; 1.5^6 crosses it
	assert.Equal(t, 8000*time.Millisecond, p.Delay(6))
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, CapDelay: 2 * time.Millisecond}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls, "no further automatic retry after MaxAttempts failures")
}

func TestDoReturnsNilOnSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, CapDelay: 2 * time.Millisecond}

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoHonorsContextCancel(t *testing.T) {
	p := Policy{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, CapDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, p, func(ctx context.Context) error {
		calls++
		return errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancel during backoff must stop the loop")
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
