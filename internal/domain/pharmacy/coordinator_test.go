package pharmacy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/your-org/hospital-backend/internal/clock"
	"github.com/your-org/hospital-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Pharmacy: config.PharmacyConfig{
			LowStockThreshold: 10,
			ExpiryScanDays:    30,
		},
	}
}

func TestCoordinator_Dispense(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	jan10 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	makeCoord := func() (*Coordinator, *fakeBatchRepo) {
		repo := newFakeBatchRepo(
			[]*InventoryItem{
				{ID: 1, HospitalID: 1, DrugID: 7, CurrentStock: 15, AvailableStock: 15, IsActive: true},
			},
			[]*InventoryBatch{
				{ID: 1, InventoryItemID: 1, BatchNumber: "B1", ExpiryDate: jan10, CurrentQuantity: 5, UnitPrice: 250, Status: BatchStatusAvailable},
				{ID: 2, InventoryItemID: 1, BatchNumber: "B2", ExpiryDate: feb1, CurrentQuantity: 10, UnitPrice: 250, Status: BatchStatusAvailable},
			},
		)
		return NewCoordinator(repo, clock.NewFixed(now), testConfig()), repo
	}

	t.Run("drains earliest expiring batch first", func(t *testing.T) {
		coord, repo := makeCoord()

		result, err := coord.Dispense(context.Background(), 1, 7, 8, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Dispensed() {
			t.Fatalf("expected dispensed outcome, got %s", result.Outcome)
		}

		record := result.Record
		if record == nil {
			t.Fatalf("expected a dispense record")
		}
		if len(record.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(record.Lines))
		}
		if record.Lines[0].BatchNumber != "B1" || record.Lines[0].Quantity != 5 {
			t.Fatalf("expected 5 from B1, got %+v", record.Lines[0])
		}
		if record.Lines[1].BatchNumber != "B2" || record.Lines[1].Quantity != 3 {
			t.Fatalf("expected 3 from B2, got %+v", record.Lines[1])
		}
		if record.TotalQuantity != 8 {
			t.Fatalf("expected total quantity 8, got %d", record.TotalQuantity)
		}
		if record.TotalAmount != 8*250 {
			t.Fatalf("expected total amount 2000, got %d", record.TotalAmount)
		}
		if record.DispensedBy != 42 {
			t.Fatalf("expected dispensed_by 42, got %d", record.DispensedBy)
		}
		if record.PrescriptionID != nil {
			t.Fatalf("expected no prescription link, got %v", *record.PrescriptionID)
		}
		if !strings.HasPrefix(record.RecordNumber, "DSP-20250101-") {
			t.Fatalf("unexpected record number %s", record.RecordNumber)
		}

		if b1 := repo.batchByID(1); b1.CurrentQuantity != 0 || b1.Status != BatchStatusOutOfStock {
			t.Fatalf("expected B1 drained and out_of_stock, got qty %d status %s", b1.CurrentQuantity, b1.Status)
		}
		if b2 := repo.batchByID(2); b2.CurrentQuantity != 7 || b2.Status != BatchStatusLowStock {
			t.Fatalf("expected B2 at 7 and low_stock, got qty %d status %s", b2.CurrentQuantity, b2.Status)
		}
		if item := repo.itemByID(1); item.CurrentStock != 7 || item.AvailableStock != 7 {
			t.Fatalf("expected item totals recomputed to 7, got current %d available %d", item.CurrentStock, item.AvailableStock)
		}
		if len(repo.records) != 1 {
			t.Fatalf("expected 1 persisted record, got %d", len(repo.records))
		}
	})

	t.Run("insufficient stock leaves inventory untouched", func(t *testing.T) {
		coord, repo := makeCoord()

		result, err := coord.Dispense(context.Background(), 1, 7, 20, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Outcome != OutcomeInsufficientStock {
			t.Fatalf("expected insufficient_stock, got %s", result.Outcome)
		}
		if result.RequestedQty != 20 || result.AvailableQty != 15 {
			t.Fatalf("expected requested 20 available 15, got %+v", result)
		}

		if b1 := repo.batchByID(1); b1.CurrentQuantity != 5 {
			t.Fatalf("expected B1 untouched, got %d", b1.CurrentQuantity)
		}
		if b2 := repo.batchByID(2); b2.CurrentQuantity != 10 {
			t.Fatalf("expected B2 untouched, got %d", b2.CurrentQuantity)
		}
		if len(repo.records) != 0 {
			t.Fatalf("expected no record on failure, got %d", len(repo.records))
		}
	})

	t.Run("unknown drug reports item_not_found", func(t *testing.T) {
		coord, _ := makeCoord()

		result, err := coord.Dispense(context.Background(), 1, 99, 1, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Outcome != OutcomeItemNotFound {
			t.Fatalf("expected item_not_found, got %s", result.Outcome)
		}
	})

	t.Run("only expired batches reports no_stock", func(t *testing.T) {
		repo := newFakeBatchRepo(
			[]*InventoryItem{{ID: 1, HospitalID: 1, DrugID: 7, IsActive: true}},
			[]*InventoryBatch{
				{ID: 1, InventoryItemID: 1, BatchNumber: "OLD", ExpiryDate: now.AddDate(0, 0, -1), CurrentQuantity: 50, Status: BatchStatusAvailable},
			},
		)
		coord := NewCoordinator(repo, clock.NewFixed(now), testConfig())

		result, err := coord.Dispense(context.Background(), 1, 7, 1, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Outcome != OutcomeNoStock {
			t.Fatalf("expected no_stock, got %s", result.Outcome)
		}
		if b := repo.batchByID(1); b.CurrentQuantity != 50 {
			t.Fatalf("expected expired batch untouched, got %d", b.CurrentQuantity)
		}
	})

	t.Run("serialization failure surfaces as conflict outcome", func(t *testing.T) {
		coord, repo := makeCoord()
		repo.conflictsLeft = 1

		result, err := coord.Dispense(context.Background(), 1, 7, 3, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Outcome != OutcomeConflict {
			t.Fatalf("expected conflict, got %s", result.Outcome)
		}
		if !result.Retryable() {
			t.Fatalf("expected conflict to be retryable")
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		coord, _ := makeCoord()

		if _, err := coord.Dispense(context.Background(), 1, 7, 0, 42); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
		if _, err := coord.Dispense(context.Background(), 0, 7, 1, 42); !errors.Is(err, ErrMissingIdentifier) {
			t.Fatalf("expected ErrMissingIdentifier, got %v", err)
		}
		if _, err := coord.Dispense(context.Background(), 1, 0, 1, 42); !errors.Is(err, ErrMissingIdentifier) {
			t.Fatalf("expected ErrMissingIdentifier, got %v", err)
		}
	})

	t.Run("item low stock threshold overrides config", func(t *testing.T) {
		repo := newFakeBatchRepo(
			[]*InventoryItem{{ID: 1, HospitalID: 1, DrugID: 7, LowStockThreshold: 3, IsActive: true}},
			[]*InventoryBatch{
				{ID: 1, InventoryItemID: 1, BatchNumber: "B1", ExpiryDate: feb1, CurrentQuantity: 10, UnitPrice: 100, Status: BatchStatusAvailable},
			},
		)
		coord := NewCoordinator(repo, clock.NewFixed(now), testConfig())

		result, err := coord.Dispense(context.Background(), 1, 7, 5, 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !result.Dispensed() {
			t.Fatalf("expected dispensed, got %s", result.Outcome)
		}
		// 5 left is below the config default of 10 but above the item's own
		// threshold of 3
		if b := repo.batchByID(1); b.Status != BatchStatusAvailable {
			t.Fatalf("expected available with item threshold 3, got %s", b.Status)
		}
	})
}

func TestCoordinator_CheckStock(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	jan10 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	repo := newFakeBatchRepo(
		[]*InventoryItem{{ID: 1, HospitalID: 1, DrugID: 7, IsActive: true}},
		[]*InventoryBatch{
			{ID: 1, InventoryItemID: 1, BatchNumber: "B1", ExpiryDate: jan10, CurrentQuantity: 5, Status: BatchStatusAvailable},
			{ID: 2, InventoryItemID: 1, BatchNumber: "B2", ExpiryDate: feb1, CurrentQuantity: 10, Status: BatchStatusAvailable},
			{ID: 3, InventoryItemID: 1, BatchNumber: "OLD", ExpiryDate: now.AddDate(0, 0, -5), CurrentQuantity: 30, Status: BatchStatusAvailable},
		},
	)
	coord := NewCoordinator(repo, clock.NewFixed(now), testConfig())

	t.Run("reports availability excluding expired batches", func(t *testing.T) {
		report, err := coord.CheckStock(context.Background(), 1, 7, 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.AvailableQty != 15 {
			t.Fatalf("expected 15 available, got %d", report.AvailableQty)
		}
		if !report.IsAvailable {
			t.Fatalf("expected stock to be available")
		}
		if len(report.Batches) != 2 {
			t.Fatalf("expected 2 live batches, got %d", len(report.Batches))
		}
		if report.Batches[0].BatchNumber != "B1" {
			t.Fatalf("expected FEFO ordering, got %s first", report.Batches[0].BatchNumber)
		}
	})

	t.Run("reports shortfall against required quantity", func(t *testing.T) {
		report, err := coord.CheckStock(context.Background(), 1, 7, 20)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.IsAvailable {
			t.Fatalf("expected not available for 20")
		}
		if report.Shortfall != 5 {
			t.Fatalf("expected shortfall 5, got %d", report.Shortfall)
		}
	})

	t.Run("satisfiable requirement", func(t *testing.T) {
		report, err := coord.CheckStock(context.Background(), 1, 7, 12)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !report.IsAvailable || report.Shortfall != 0 {
			t.Fatalf("expected available with no shortfall, got %+v", report)
		}
	})

	t.Run("unknown drug returns ErrItemNotFound", func(t *testing.T) {
		if _, err := coord.CheckStock(context.Background(), 1, 99, 1); !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected ErrItemNotFound, got %v", err)
		}
	})
}
