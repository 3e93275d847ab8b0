// internal/domain/pharmacy/orchestrator.go
package pharmacy

import (
	"context"
	"errors"
)

// PrescriptionMarker is the prescription collaborator the orchestrator
// flips the dispensed flag on. The implementation must join the caller's
// transaction.
type PrescriptionMarker interface {
	MarkDispensed(ctx context.Context, hospitalID, prescriptionID, actorID uint) error
}

// Orchestrator dispenses every line of a multi-drug order atomically: the
// whole prescription is dispensed completely or not at all. All lines are
// planned before any batch is touched, so a shortfall on the last drug
// leaves the first drug's batches unchanged.
type Orchestrator struct {
	repo          BatchRepository
	coord         *Coordinator
	prescriptions PrescriptionMarker
}

// NewOrchestrator creates a prescription dispense orchestrator.
func NewOrchestrator(repo BatchRepository, coord *Coordinator, prescriptions PrescriptionMarker) *Orchestrator {
	return &Orchestrator{
		repo:          repo,
		coord:         coord,
		prescriptions: prescriptions,
	}
}

// DispenseAll dispenses every requested drug inside one transaction. If any
// line cannot be fully covered, nothing is applied and the result reports
// every failing line. On success one combined dispense record is persisted
// and the source prescription, when given, is marked dispensed.
func (o *Orchestrator) DispenseAll(ctx context.Context, hospitalID uint, prescriptionID *uint, items []RequestedItem, actorID uint) (*OrchestratedResult, error) {
	if hospitalID == 0 {
		return nil, ErrMissingIdentifier
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if it.DrugID == 0 {
			return nil, ErrMissingIdentifier
		}
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if seen[it.DrugID] {
			return nil, ErrDuplicateDrug
		}
		seen[it.DrugID] = true
	}

	var result *OrchestratedResult
	err := o.repo.WithTx(ctx, func(ctx context.Context) error {
		planned := make([]*plannedLine, 0, len(items))
		itemResults := make([]ItemResult, 0, len(items))
		var firstFailure DispenseOutcome

		for _, it := range items {
			line, failure, err := o.coord.planLine(ctx, hospitalID, it.DrugID, it.Quantity)
			if err != nil {
				return err
			}
			if failure != nil {
				if firstFailure == "" {
					firstFailure = failure.Outcome
				}
				itemResults = append(itemResults, ItemResult{
					DrugID:       it.DrugID,
					Outcome:      failure.Outcome,
					RequestedQty: it.Quantity,
					AvailableQty: failure.AvailableQty,
				})
				continue
			}
			itemResults = append(itemResults, ItemResult{
				DrugID:       it.DrugID,
				Outcome:      OutcomeDispensed,
				RequestedQty: it.Quantity,
			})
			planned = append(planned, line)
		}

		if firstFailure != "" {
			result = &OrchestratedResult{Outcome: firstFailure, Items: itemResults}
			return errAbortTx
		}

		for _, line := range planned {
			if err := o.coord.applyLine(ctx, line); err != nil {
				return err
			}
		}
		now := o.coord.clk.Now()
		for _, line := range planned {
			if _, err := o.coord.agg.Recompute(ctx, line.item.ID, now); err != nil {
				return err
			}
		}

		record := o.coord.buildRecord(hospitalID, actorID, prescriptionID, planned)
		if err := o.repo.CreateDispenseRecord(ctx, record); err != nil {
			return err
		}

		if prescriptionID != nil && o.prescriptions != nil {
			if err := o.prescriptions.MarkDispensed(ctx, hospitalID, *prescriptionID, actorID); err != nil {
				return err
			}
		}

		result = &OrchestratedResult{
			Outcome:     OutcomeDispensed,
			Items:       itemResults,
			Record:      record,
			TotalAmount: record.TotalAmount,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAbortTx) {
			return result, nil
		}
		if IsConflict(err) {
			return &OrchestratedResult{Outcome: OutcomeConflict}, nil
		}
		return nil, err
	}
	return result, nil
}
