// internal/domain/pharmacy/expiry.go
package pharmacy

import (
	"context"
	"time"

	"github.com/your-org/hospital-backend/internal/clock"
)

// AlertTier classifies how urgent an expiring batch is.
type AlertTier string

const (
	AlertTierCritical AlertTier = "critical" // expires within 7 days
	AlertTierWarning  AlertTier = "warning"  // expires within 14 days
	AlertTierInfo     AlertTier = "info"     // expires within the scan window
)

// ExpiryAlert flags one batch approaching its expiry date.
type ExpiryAlert struct {
	InventoryBatchID uint      `json:"inventory_batch_id"`
	InventoryItemID  uint      `json:"inventory_item_id"`
	DrugID           uint      `json:"drug_id"`
	BatchNumber      string    `json:"batch_number"`
	ExpiryDate       time.Time `json:"expiry_date"`
	DaysUntilExpiry  int       `json:"days_until_expiry"`
	Quantity         int       `json:"quantity"`
	Tier             AlertTier `json:"tier"`
}

// ExpiryMonitor scans for batches nearing expiry. It is read-only and runs
// outside the write path, so a slightly stale snapshot is acceptable.
type ExpiryMonitor struct {
	repo BatchRepository
	clk  clock.Clock
}

// NewExpiryMonitor creates an expiry monitor.
func NewExpiryMonitor(repo BatchRepository, clk clock.Clock) *ExpiryMonitor {
	return &ExpiryMonitor{repo: repo, clk: clk}
}

// ScanExpiring returns one alert per live batch expiring within withinDays,
// ordered by ascending expiry date. Already-expired batches are excluded.
func (m *ExpiryMonitor) ScanExpiring(ctx context.Context, hospitalID uint, withinDays int) ([]ExpiryAlert, error) {
	if hospitalID == 0 {
		return nil, ErrMissingIdentifier
	}
	if withinDays <= 0 {
		return nil, ErrInvalidWindow
	}

	now := m.clk.Now()
	until := now.AddDate(0, 0, withinDays)

	rows, err := m.repo.FetchExpiringBatches(ctx, hospitalID, now, until)
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpiryAlert, 0, len(rows))
	for _, row := range rows {
		days := daysUntil(now, row.ExpiryDate)
		alerts = append(alerts, ExpiryAlert{
			InventoryBatchID: row.BatchID,
			InventoryItemID:  row.InventoryItemID,
			DrugID:           row.DrugID,
			BatchNumber:      row.BatchNumber,
			ExpiryDate:       row.ExpiryDate,
			DaysUntilExpiry:  days,
			Quantity:         row.Quantity,
			Tier:             tierFor(days),
		})
	}
	return alerts, nil
}

// daysUntil counts calendar days from now to expiry, rounding partial days
// up so a batch expiring tomorrow morning counts as one day.
func daysUntil(now, expiry time.Time) int {
	d := expiry.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

func tierFor(days int) AlertTier {
	switch {
	case days <= 7:
		return AlertTierCritical
	case days <= 14:
		return AlertTierWarning
	default:
		return AlertTierInfo
	}
}
