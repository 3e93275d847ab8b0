package pharmacy

import (
	"context"
	"testing"
	"time"
)

func TestAggregator_Recompute(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)

	t.Run("sums live batches and writes totals onto the item", func(t *testing.T) {
		repo := newFakeBatchRepo(
			[]*InventoryItem{{ID: 1, HospitalID: 1, DrugID: 7, IsActive: true}},
			[]*InventoryBatch{
				{ID: 1, InventoryItemID: 1, ExpiryDate: future, CurrentQuantity: 8, ReservedQuantity: 2, Status: BatchStatusAvailable},
				{ID: 2, InventoryItemID: 1, ExpiryDate: future, CurrentQuantity: 4, Status: BatchStatusLowStock},
			},
		)
		agg := NewAggregator(repo)

		totals, err := agg.Recompute(context.Background(), 1, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if totals.Current != 12 || totals.Reserved != 2 || totals.Available != 10 {
			t.Fatalf("unexpected totals %+v", totals)
		}

		item := repo.itemByID(1)
		if item.CurrentStock != 12 || item.ReservedStock != 2 || item.AvailableStock != 10 {
			t.Fatalf("expected totals persisted on item, got %+v", item)
		}
	})

	t.Run("expired and dead batches contribute zero", func(t *testing.T) {
		repo := newFakeBatchRepo(
			[]*InventoryItem{{ID: 1, HospitalID: 1, DrugID: 7, CurrentStock: 99, IsActive: true}},
			[]*InventoryBatch{
				{ID: 1, InventoryItemID: 1, ExpiryDate: now.AddDate(0, 0, -1), CurrentQuantity: 50, Status: BatchStatusExpired},
				{ID: 2, InventoryItemID: 1, ExpiryDate: future, CurrentQuantity: 0, Status: BatchStatusOutOfStock},
				{ID: 3, InventoryItemID: 1, ExpiryDate: future, CurrentQuantity: 30, Status: BatchStatusRecalled},
				{ID: 4, InventoryItemID: 1, ExpiryDate: future, CurrentQuantity: 3, Status: BatchStatusAvailable},
			},
		)
		agg := NewAggregator(repo)

		totals, err := agg.Recompute(context.Background(), 1, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if totals.Current != 3 || totals.Available != 3 {
			t.Fatalf("expected only the live batch counted, got %+v", totals)
		}
	})
}
