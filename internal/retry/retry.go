// Package retry runs a readiness check until it succeeds or a bounded number of
// attempts is used up, waiting a fixed interval between attempts.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// Readiness is the policy used to wait for a local server to come up.
var Readiness = Policy{Attempts: 30, Interval: time.Second}

// Check reports readiness by returning nil.
type Check func(ctx context.Context) error

// Do calls check up to p.Attempts times. It returns nil on the first success,
// ctx.Err() if the context ends, or the last check error.
func Do(ctx context.Context, p Policy, check Check) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		if lastErr = check(ctx); lastErr == nil {
			return nil
		}
		if i == attempts {
			break
		}

		timer := time.NewTimer(p.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("not ready after %d attempts: %w", attempts, lastErr)
}
