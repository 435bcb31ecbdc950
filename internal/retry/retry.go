// internal/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/orderkaro/orderkaro-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Policy parametrizes Do. The delay before attempt n (0-based) is
// min(BaseDelay * 1.5^n, CapDelay), so the schedule is non-decreasing and
// bounded.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
}

// DefaultPolicy matches the setup-call tuning used across the service.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   1500 * time.Millisecond,
	CapDelay:    10 * time.Second,
}

// Delay returns the backoff delay scheduled after a failed attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(1.5, float64(attempt)))
	if d > p.CapDelay {
		return p.CapDelay
	}
	return d
}

// Do runs fn until it succeeds, the policy's attempts are exhausted, or ctx is
// done. The last error is returned wrapped with the attempt count. Do never
// retries after MaxAttempts failures.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts-1 {
			break
		}

		delay := p.Delay(attempt)
		customLog.Warnf("Retry: attempt %d/%d failed: %v. Retrying in %v", attempt+1, p.MaxAttempts, lastErr, delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

// WithTimeout runs fn under a deadline. It is the single timeout policy for
// one-shot setup calls; per-request timeouts come from the HTTP request context.
func WithTimeout(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
