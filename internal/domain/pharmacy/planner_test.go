package pharmacy

import (
	"errors"
	"testing"
	"time"
)

func TestPlanAllocation(t *testing.T) {
	t.Parallel()

	jan10 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	candidates := []BatchCandidate{
		{BatchID: 1, BatchNumber: "B1", AvailableQty: 5, ExpiryDate: jan10, UnitPrice: 250},
		{BatchID: 2, BatchNumber: "B2", AvailableQty: 10, ExpiryDate: feb1, UnitPrice: 300},
	}

	t.Run("covers request from earliest expiring batch", func(t *testing.T) {
		plan, err := PlanAllocation(candidates, 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(plan.Lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(plan.Lines))
		}
		if plan.Lines[0].BatchID != 1 || plan.Lines[0].Quantity != 3 {
			t.Fatalf("expected 3 from batch 1, got %d from batch %d", plan.Lines[0].Quantity, plan.Lines[0].BatchID)
		}
		if plan.TotalAmount != 750 {
			t.Fatalf("expected total 750, got %d", plan.TotalAmount)
		}
	})

	t.Run("splits request across batches in expiry order", func(t *testing.T) {
		plan, err := PlanAllocation(candidates, 8)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(plan.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(plan.Lines))
		}
		if plan.Lines[0].BatchID != 1 || plan.Lines[0].Quantity != 5 {
			t.Fatalf("expected batch 1 drained first, got %+v", plan.Lines[0])
		}
		if plan.Lines[1].BatchID != 2 || plan.Lines[1].Quantity != 3 {
			t.Fatalf("expected 3 from batch 2, got %+v", plan.Lines[1])
		}
		if plan.TotalAmount != 5*250+3*300 {
			t.Fatalf("unexpected total amount %d", plan.TotalAmount)
		}
	})

	t.Run("exact fit drains every batch", func(t *testing.T) {
		plan, err := PlanAllocation(candidates, 15)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(plan.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(plan.Lines))
		}
		if plan.Lines[0].Quantity+plan.Lines[1].Quantity != 15 {
			t.Fatalf("expected full coverage, got %+v", plan.Lines)
		}
	})

	t.Run("shortfall reports total available and returns no plan", func(t *testing.T) {
		_, err := PlanAllocation(candidates, 20)
		var shortfall *ShortfallError
		if !errors.As(err, &shortfall) {
			t.Fatalf("expected ShortfallError, got %v", err)
		}
		if shortfall.Available != 15 || shortfall.Requested != 20 {
			t.Fatalf("expected available 15 requested 20, got %+v", shortfall)
		}
		if shortfall.Shortfall() != 5 {
			t.Fatalf("expected shortfall 5, got %d", shortfall.Shortfall())
		}
	})

	t.Run("skips batches without available quantity", func(t *testing.T) {
		withEmpty := []BatchCandidate{
			{BatchID: 1, BatchNumber: "B1", AvailableQty: 0, ExpiryDate: jan10},
			{BatchID: 2, BatchNumber: "B2", AvailableQty: 4, ExpiryDate: feb1, UnitPrice: 100},
		}
		plan, err := PlanAllocation(withEmpty, 4)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(plan.Lines) != 1 || plan.Lines[0].BatchID != 2 {
			t.Fatalf("expected only batch 2 allocated, got %+v", plan.Lines)
		}
	})

	t.Run("no candidates is a shortfall with zero available", func(t *testing.T) {
		_, err := PlanAllocation(nil, 1)
		var shortfall *ShortfallError
		if !errors.As(err, &shortfall) {
			t.Fatalf("expected ShortfallError, got %v", err)
		}
		if shortfall.Available != 0 {
			t.Fatalf("expected zero available, got %d", shortfall.Available)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		for _, qty := range []int{0, -3} {
			if _, err := PlanAllocation(candidates, qty); !errors.Is(err, ErrInvalidQuantity) {
				t.Fatalf("expected ErrInvalidQuantity for %d, got %v", qty, err)
			}
		}
	})
}

func TestComputeStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)

	t.Run("recalled is sticky", func(t *testing.T) {
		b := &InventoryBatch{Status: BatchStatusRecalled, CurrentQuantity: 50, ExpiryDate: future}
		if got := b.ComputeStatus(now, 10); got != BatchStatusRecalled {
			t.Fatalf("expected recalled, got %s", got)
		}
	})

	t.Run("expiry wins over quantity", func(t *testing.T) {
		b := &InventoryBatch{CurrentQuantity: 50, ExpiryDate: now.AddDate(0, 0, -1), Status: BatchStatusAvailable}
		if got := b.ComputeStatus(now, 10); got != BatchStatusExpired {
			t.Fatalf("expected expired, got %s", got)
		}
	})

	t.Run("expiry boundary is inclusive", func(t *testing.T) {
		b := &InventoryBatch{CurrentQuantity: 50, ExpiryDate: now, Status: BatchStatusAvailable}
		if got := b.ComputeStatus(now, 10); got != BatchStatusExpired {
			t.Fatalf("expected batch expiring exactly now to be expired, got %s", got)
		}
	})

	t.Run("zero quantity is out of stock", func(t *testing.T) {
		b := &InventoryBatch{CurrentQuantity: 0, ExpiryDate: future, Status: BatchStatusAvailable}
		if got := b.ComputeStatus(now, 10); got != BatchStatusOutOfStock {
			t.Fatalf("expected out_of_stock, got %s", got)
		}
	})

	t.Run("below threshold is low stock", func(t *testing.T) {
		b := &InventoryBatch{CurrentQuantity: 9, ExpiryDate: future, Status: BatchStatusAvailable}
		if got := b.ComputeStatus(now, 10); got != BatchStatusLowStock {
			t.Fatalf("expected low_stock, got %s", got)
		}
	})

	t.Run("at threshold is available", func(t *testing.T) {
		b := &InventoryBatch{CurrentQuantity: 10, ExpiryDate: future, Status: BatchStatusAvailable}
		if got := b.ComputeStatus(now, 10); got != BatchStatusAvailable {
			t.Fatalf("expected available, got %s", got)
		}
	})
}
