// internal/domain/pharmacy/aggregator.go
package pharmacy

import (
	"context"
	"time"
)

// StockTotals is an item's recomputed aggregate stock.
type StockTotals struct {
	Current   int `json:"current"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// Aggregator recomputes an item's denormalized stock from its live batches.
// It is the sole writer of the item stock fields and runs inside whatever
// transaction the caller has open. Repeated invocation within one
// transaction yields the same result.
type Aggregator struct {
	repo BatchRepository
}

// NewAggregator creates a stock aggregator.
func NewAggregator(repo BatchRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Recompute sums the item's live batches and writes the totals back onto
// the item. Expired and out-of-stock batches contribute zero.
func (a *Aggregator) Recompute(ctx context.Context, itemID uint, now time.Time) (StockTotals, error) {
	current, reserved, err := a.repo.LiveBatchTotals(ctx, itemID, now)
	if err != nil {
		return StockTotals{}, err
	}

	totals := StockTotals{
		Current:   current,
		Reserved:  reserved,
		Available: current - reserved,
	}
	if err := a.repo.SaveItemStock(ctx, itemID, totals.Current, totals.Reserved, totals.Available); err != nil {
		return StockTotals{}, err
	}
	return totals, nil
}
