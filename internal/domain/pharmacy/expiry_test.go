package pharmacy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/your-org/hospital-backend/internal/clock"
)

func TestExpiryMonitor_ScanExpiring(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	repo := newFakeBatchRepo(
		[]*InventoryItem{
			{ID: 1, HospitalID: 1, DrugID: 7, IsActive: true},
			{ID: 2, HospitalID: 2, DrugID: 7, IsActive: true},
		},
		[]*InventoryBatch{
			{ID: 1, InventoryItemID: 1, BatchNumber: "SOON", ExpiryDate: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), CurrentQuantity: 10, Status: BatchStatusAvailable},
			{ID: 2, InventoryItemID: 1, BatchNumber: "MID", ExpiryDate: now.AddDate(0, 0, 10), CurrentQuantity: 20, Status: BatchStatusAvailable},
			{ID: 3, InventoryItemID: 1, BatchNumber: "LATE", ExpiryDate: now.AddDate(0, 0, 20), CurrentQuantity: 30, Status: BatchStatusAvailable},
			{ID: 4, InventoryItemID: 1, BatchNumber: "GONE", ExpiryDate: now.AddDate(0, 0, -1), CurrentQuantity: 5, Status: BatchStatusExpired},
			{ID: 5, InventoryItemID: 1, BatchNumber: "FAR", ExpiryDate: now.AddDate(0, 6, 0), CurrentQuantity: 50, Status: BatchStatusAvailable},
			{ID: 6, InventoryItemID: 1, BatchNumber: "EMPTY", ExpiryDate: now.AddDate(0, 0, 6), CurrentQuantity: 0, Status: BatchStatusOutOfStock},
			{ID: 7, InventoryItemID: 1, BatchNumber: "PULLED", ExpiryDate: now.AddDate(0, 0, 6), CurrentQuantity: 9, Status: BatchStatusRecalled},
			{ID: 8, InventoryItemID: 2, BatchNumber: "OTHER", ExpiryDate: now.AddDate(0, 0, 5), CurrentQuantity: 7, Status: BatchStatusAvailable},
		},
	)
	monitor := NewExpiryMonitor(repo, clock.NewFixed(now))

	t.Run("tiers by days until expiry in ascending order", func(t *testing.T) {
		alerts, err := monitor.ScanExpiring(context.Background(), 1, 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(alerts) != 3 {
			t.Fatalf("expected 3 alerts, got %d", len(alerts))
		}

		if alerts[0].BatchNumber != "SOON" || alerts[0].Tier != AlertTierCritical {
			t.Fatalf("expected SOON critical first, got %s %s", alerts[0].BatchNumber, alerts[0].Tier)
		}
		if alerts[1].BatchNumber != "MID" || alerts[1].Tier != AlertTierWarning {
			t.Fatalf("expected MID warning, got %s %s", alerts[1].BatchNumber, alerts[1].Tier)
		}
		if alerts[2].BatchNumber != "LATE" || alerts[2].Tier != AlertTierInfo {
			t.Fatalf("expected LATE info, got %s %s", alerts[2].BatchNumber, alerts[2].Tier)
		}
	})

	t.Run("excludes expired, empty, recalled and out-of-window batches", func(t *testing.T) {
		alerts, err := monitor.ScanExpiring(context.Background(), 1, 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, a := range alerts {
			switch a.BatchNumber {
			case "GONE", "FAR", "EMPTY", "PULLED", "OTHER":
				t.Fatalf("batch %s must not be reported", a.BatchNumber)
			}
		}
	})

	t.Run("partial days round up", func(t *testing.T) {
		// Expires at midnight five days out; with the scan at noon that is
		// 4.5 days away and must count as 5
		alerts, err := monitor.ScanExpiring(context.Background(), 1, 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert within 7 days, got %d", len(alerts))
		}
		if alerts[0].DaysUntilExpiry != 5 {
			t.Fatalf("expected 5 days until expiry, got %d", alerts[0].DaysUntilExpiry)
		}
	})

	t.Run("scopes to the hospital", func(t *testing.T) {
		alerts, err := monitor.ScanExpiring(context.Background(), 2, 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(alerts) != 1 || alerts[0].BatchNumber != "OTHER" {
			t.Fatalf("expected only the other hospital's batch, got %+v", alerts)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		if _, err := monitor.ScanExpiring(context.Background(), 0, 30); !errors.Is(err, ErrMissingIdentifier) {
			t.Fatalf("expected ErrMissingIdentifier, got %v", err)
		}
		if _, err := monitor.ScanExpiring(context.Background(), 1, 0); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}
	})
}
