// internal/domain/pharmacy/retry.go
package pharmacy

import (
	"context"
	"time"
)

// RetryOnConflict re-runs a dispense operation while it reports a Conflict
// outcome, up to maxAttempts. The retry policy lives here, outside the
// coordinator, so every attempt stays observable to callers and tests.
// Business outcomes other than Conflict and all errors end the loop
// immediately; the context deadline is honored between attempts.
func RetryOnConflict(ctx context.Context, maxAttempts int, backoff time.Duration, fn func(ctx context.Context) (*DispenseResult, error)) (*DispenseResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result *DispenseResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var err error
		result, err = fn(ctx)
		if err != nil {
			return nil, err
		}
		if result.Outcome != OutcomeConflict {
			return result, nil
		}
	}
	// Conflict survived the whole budget; hand it back to the caller.
	return result, nil
}
