// internal/domain/pharmacy/planner.go
package pharmacy

import "time"

// BatchCandidate is one batch eligible for allocation. Candidates handed to
// the planner must already be filtered to non-expired batches with available
// quantity and ordered ascending by expiry date (creation order breaking
// ties).
type BatchCandidate struct {
	BatchID      uint
	BatchNumber  string
	AvailableQty int
	ExpiryDate   time.Time
	UnitPrice    int64
}

// AllocationLine allocates a quantity from one batch.
type AllocationLine struct {
	BatchID     uint
	BatchNumber string
	Quantity    int
	UnitPrice   int64
}

// AllocationPlan is an ordered first-expiry-first-out allocation covering
// the full requested quantity.
type AllocationPlan struct {
	Lines       []AllocationLine
	Requested   int
	TotalAmount int64 // In cents
}

// PlanAllocation walks the candidates in order, taking from each batch until
// the request is covered. It performs no I/O and mutates nothing.
//
// A non-positive request returns ErrInvalidQuantity. If the candidates are
// exhausted first, a *ShortfallError describes the gap and no partial plan
// is returned.
func PlanAllocation(candidates []BatchCandidate, requested int) (*AllocationPlan, error) {
	if requested <= 0 {
		return nil, ErrInvalidQuantity
	}

	plan := &AllocationPlan{Requested: requested}
	remaining := requested
	available := 0

	for _, c := range candidates {
		if c.AvailableQty <= 0 {
			continue
		}
		available += c.AvailableQty
		if remaining == 0 {
			continue
		}

		take := remaining
		if c.AvailableQty < take {
			take = c.AvailableQty
		}

		plan.Lines = append(plan.Lines, AllocationLine{
			BatchID:     c.BatchID,
			BatchNumber: c.BatchNumber,
			Quantity:    take,
			UnitPrice:   c.UnitPrice,
		})
		plan.TotalAmount += int64(take) * c.UnitPrice
		remaining -= take
	}

	if remaining > 0 {
		return nil, &ShortfallError{Requested: requested, Available: available}
	}

	return plan, nil
}

// CandidatesFromBatches converts fetched batches into planner input,
// preserving their order.
func CandidatesFromBatches(batches []InventoryBatch) []BatchCandidate {
	candidates := make([]BatchCandidate, 0, len(batches))
	for _, b := range batches {
		candidates = append(candidates, BatchCandidate{
			BatchID:      b.ID,
			BatchNumber:  b.BatchNumber,
			AvailableQty: b.AvailableQuantity(),
			ExpiryDate:   b.ExpiryDate,
			UnitPrice:    b.UnitPrice,
		})
	}
	return candidates
}
