package pharmacy

import (
	"context"
	"errors"
	"testing"
)

func TestRetryOnConflict(t *testing.T) {
	t.Parallel()

	t.Run("returns first non-conflict result", func(t *testing.T) {
		calls := 0
		result, err := RetryOnConflict(context.Background(), 3, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			return &DispenseResult{Outcome: OutcomeDispensed}, nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
		if !result.Dispensed() {
			t.Fatalf("expected dispensed, got %s", result.Outcome)
		}
	})

	t.Run("retries conflicts until success", func(t *testing.T) {
		calls := 0
		result, err := RetryOnConflict(context.Background(), 3, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			if calls < 3 {
				return &DispenseResult{Outcome: OutcomeConflict}, nil
			}
			return &DispenseResult{Outcome: OutcomeDispensed}, nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
		if !result.Dispensed() {
			t.Fatalf("expected dispensed after retries, got %s", result.Outcome)
		}
	})

	t.Run("hands back conflict when budget exhausted", func(t *testing.T) {
		calls := 0
		result, err := RetryOnConflict(context.Background(), 2, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			return &DispenseResult{Outcome: OutcomeConflict}, nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
		if result.Outcome != OutcomeConflict {
			t.Fatalf("expected conflict result, got %s", result.Outcome)
		}
	})

	t.Run("business failures are not retried", func(t *testing.T) {
		calls := 0
		result, err := RetryOnConflict(context.Background(), 5, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			return &DispenseResult{Outcome: OutcomeInsufficientStock, AvailableQty: 3}, nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
		if result.Outcome != OutcomeInsufficientStock {
			t.Fatalf("expected insufficient_stock, got %s", result.Outcome)
		}
	})

	t.Run("errors end the loop immediately", func(t *testing.T) {
		boom := errors.New("connection lost")
		calls := 0
		_, err := RetryOnConflict(context.Background(), 5, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected underlying error, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("canceled context stops between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := RetryOnConflict(ctx, 3, 1, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			cancel()
			return &DispenseResult{Outcome: OutcomeConflict}, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call before cancellation, got %d", calls)
		}
	})

	t.Run("zero attempts still runs once", func(t *testing.T) {
		calls := 0
		result, err := RetryOnConflict(context.Background(), 0, 0, func(ctx context.Context) (*DispenseResult, error) {
			calls++
			return &DispenseResult{Outcome: OutcomeDispensed}, nil
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls != 1 || !result.Dispensed() {
			t.Fatalf("expected a single successful call, got %d", calls)
		}
	})
}
