// internal/domain/pharmacy/coordinator.go
package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/hospital-backend/internal/clock"
	"github.com/your-org/hospital-backend/internal/config"
)

// errAbortTx forces a rollback when a business condition (shortfall, missing
// item) is detected mid-transaction. It never escapes the coordinator.
var errAbortTx = errors.New("abort transaction")

// Coordinator executes dispense operations: it plans an allocation against
// live batch state, applies the plan, recomputes aggregate stock and
// persists the dispense record, all inside one serializable transaction.
// It owns the write path to batches and aggregate stock; it never retries
// conflicts itself (see RetryOnConflict).
type Coordinator struct {
	repo BatchRepository
	agg  *Aggregator
	clk  clock.Clock
	cfg  *config.Config
}

// NewCoordinator creates a dispense coordinator.
func NewCoordinator(repo BatchRepository, clk clock.Clock, cfg *config.Config) *Coordinator {
	return &Coordinator{
		repo: repo,
		agg:  NewAggregator(repo),
		clk:  clk,
		cfg:  cfg,
	}
}

// Dispense allocates and deducts stock for one drug. Business outcomes come
// back as a tagged result; only validation mistakes and infrastructure
// failures return an error. Any failure leaves inventory untouched.
func (c *Coordinator) Dispense(ctx context.Context, hospitalID, drugID uint, quantity int, actorID uint) (*DispenseResult, error) {
	if hospitalID == 0 || drugID == 0 {
		return nil, ErrMissingIdentifier
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var result *DispenseResult
	err := c.repo.WithTx(ctx, func(ctx context.Context) error {
		planned, failure, err := c.planLine(ctx, hospitalID, drugID, quantity)
		if err != nil {
			return err
		}
		if failure != nil {
			result = failure
			return errAbortTx
		}

		if err := c.applyLine(ctx, planned); err != nil {
			return err
		}
		if _, err := c.agg.Recompute(ctx, planned.item.ID, c.clk.Now()); err != nil {
			return err
		}

		record := c.buildRecord(hospitalID, actorID, nil, []*plannedLine{planned})
		if err := c.repo.CreateDispenseRecord(ctx, record); err != nil {
			return err
		}

		result = &DispenseResult{
			Outcome:      OutcomeDispensed,
			Record:       record,
			RequestedQty: quantity,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAbortTx) {
			return result, nil
		}
		if IsConflict(err) {
			return &DispenseResult{Outcome: OutcomeConflict, RequestedQty: quantity}, nil
		}
		return nil, err
	}
	return result, nil
}

// BatchAvailability describes one batch in a stock availability report.
type BatchAvailability struct {
	BatchNumber string    `json:"batch_number"`
	Quantity    int       `json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`
}

// StockAvailability is the read-only answer to a stock check.
type StockAvailability struct {
	DrugID       uint                `json:"drug_id"`
	IsAvailable  bool                `json:"is_available"`
	AvailableQty int                 `json:"available_qty"`
	RequiredQty  int                 `json:"required_qty,omitempty"`
	Shortfall    int                 `json:"shortfall,omitempty"`
	Batches      []BatchAvailability `json:"batches"`
}

// CheckStock reports whether requiredQty can currently be dispensed. It
// runs outside any transaction and may observe a slightly stale snapshot;
// only a dispense call actually allocates stock. A requiredQty of zero asks
// only for the availability report.
func (c *Coordinator) CheckStock(ctx context.Context, hospitalID, drugID uint, requiredQty int) (*StockAvailability, error) {
	if hospitalID == 0 || drugID == 0 {
		return nil, ErrMissingIdentifier
	}
	if requiredQty < 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := c.repo.GetActiveItem(ctx, hospitalID, drugID)
	if err != nil {
		return nil, err
	}

	batches, err := c.repo.FetchCandidates(ctx, item.ID, c.clk.Now())
	if err != nil {
		return nil, err
	}

	report := &StockAvailability{
		DrugID:      drugID,
		RequiredQty: requiredQty,
		Batches:     make([]BatchAvailability, 0, len(batches)),
	}
	for _, b := range batches {
		report.AvailableQty += b.AvailableQuantity()
		report.Batches = append(report.Batches, BatchAvailability{
			BatchNumber: b.BatchNumber,
			Quantity:    b.AvailableQuantity(),
			ExpiryDate:  b.ExpiryDate,
		})
	}

	if requiredQty > 0 {
		report.IsAvailable = report.AvailableQty >= requiredQty
		if !report.IsAvailable {
			report.Shortfall = requiredQty - report.AvailableQty
		}
	} else {
		report.IsAvailable = report.AvailableQty > 0
	}
	return report, nil
}

// plannedLine carries one drug's allocation from planning to application.
type plannedLine struct {
	item      *InventoryItem
	batches   []InventoryBatch
	plan      *AllocationPlan
	drugID    uint
	requested int
}

// planLine resolves the item, fetches candidates inside the current
// transaction and runs the allocation planner. A business failure comes
// back as a tagged result; infrastructure failures as an error.
func (c *Coordinator) planLine(ctx context.Context, hospitalID, drugID uint, quantity int) (*plannedLine, *DispenseResult, error) {
	item, err := c.repo.GetActiveItem(ctx, hospitalID, drugID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, &DispenseResult{Outcome: OutcomeItemNotFound, RequestedQty: quantity}, nil
		}
		return nil, nil, err
	}

	batches, err := c.repo.FetchCandidates(ctx, item.ID, c.clk.Now())
	if err != nil {
		return nil, nil, err
	}
	if len(batches) == 0 {
		return nil, &DispenseResult{Outcome: OutcomeNoStock, RequestedQty: quantity}, nil
	}

	plan, err := PlanAllocation(CandidatesFromBatches(batches), quantity)
	if err != nil {
		var shortfall *ShortfallError
		if errors.As(err, &shortfall) {
			return nil, &DispenseResult{
				Outcome:      OutcomeInsufficientStock,
				RequestedQty: quantity,
				AvailableQty: shortfall.Available,
			}, nil
		}
		return nil, nil, err
	}

	return &plannedLine{
		item:      item,
		batches:   batches,
		plan:      plan,
		drugID:    drugID,
		requested: quantity,
	}, nil, nil
}

// applyLine decrements each planned batch and recomputes its status.
func (c *Coordinator) applyLine(ctx context.Context, planned *plannedLine) error {
	now := c.clk.Now()
	threshold := c.thresholdFor(planned.item)

	byID := make(map[uint]*InventoryBatch, len(planned.batches))
	for i := range planned.batches {
		byID[planned.batches[i].ID] = &planned.batches[i]
	}

	for _, line := range planned.plan.Lines {
		batch, ok := byID[line.BatchID]
		if !ok {
			return fmt.Errorf("planned batch %d not among candidates", line.BatchID)
		}
		batch.CurrentQuantity -= line.Quantity
		if batch.CurrentQuantity < 0 {
			return fmt.Errorf("batch %d would go negative", batch.ID)
		}
		batch.Status = batch.ComputeStatus(now, threshold)
		if err := c.repo.SaveBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// thresholdFor resolves the low-stock threshold for an item.
func (c *Coordinator) thresholdFor(item *InventoryItem) int {
	if item.LowStockThreshold > 0 {
		return item.LowStockThreshold
	}
	return c.cfg.Pharmacy.LowStockThreshold
}

// buildRecord assembles the immutable dispense record for one or more
// planned lines.
func (c *Coordinator) buildRecord(hospitalID, actorID uint, prescriptionID *uint, planned []*plannedLine) *DispenseRecord {
	now := c.clk.Now()
	record := &DispenseRecord{
		RecordNumber:   newRecordNumber(now),
		HospitalID:     hospitalID,
		PrescriptionID: prescriptionID,
		DispensedBy:    actorID,
	}

	for _, p := range planned {
		for _, line := range p.plan.Lines {
			record.Lines = append(record.Lines, DispenseLine{
				InventoryItemID:  p.item.ID,
				DrugID:           p.drugID,
				InventoryBatchID: line.BatchID,
				BatchNumber:      line.BatchNumber,
				Quantity:         line.Quantity,
				UnitPrice:        line.UnitPrice,
				TotalPrice:       int64(line.Quantity) * line.UnitPrice,
			})
			record.TotalQuantity += line.Quantity
		}
		record.TotalAmount += p.plan.TotalAmount
	}
	return record
}

// newRecordNumber generates a dispense record number.
// Format: DSP-YYYYMMDD-XXXXXXXX
func newRecordNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("DSP-%s-%s", now.Format("20060102"), suffix)
}
