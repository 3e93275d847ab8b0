// internal/domain/pharmacy/repository.go
package pharmacy

import (
	"context"
	"time"
)

// BatchRepository is the engine's only access to persisted stock state.
// Mutating methods must be called inside WithTx; read-only callers (stock
// queries, the expiry monitor) may call the fetch methods outside any
// transaction and tolerate slightly stale snapshots.
type BatchRepository interface {
	// WithTx runs fn inside one serializable transaction. A nested call
	// joins the surrounding transaction. Any error from fn rolls everything
	// back; a concurrent write conflict surfaces as an error recognized by
	// IsConflict.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	// GetActiveItem resolves the inventory item for (hospital, drug).
	// Returns ErrItemNotFound if absent or inactive.
	GetActiveItem(ctx context.Context, hospitalID, drugID uint) (*InventoryItem, error)

	// FetchCandidates returns the item's dispensable batches (non-expired,
	// quantity above zero, status available or low_stock) ordered ascending
	// by expiry date, oldest batch first on ties.
	FetchCandidates(ctx context.Context, itemID uint, now time.Time) ([]InventoryBatch, error)

	// SaveBatch persists a mutated batch.
	SaveBatch(ctx context.Context, batch *InventoryBatch) error

	// LiveBatchTotals sums current and reserved quantities across the item's
	// live batches.
	LiveBatchTotals(ctx context.Context, itemID uint, now time.Time) (current, reserved int, err error)

	// SaveItemStock writes the denormalized stock fields onto the item.
	SaveItemStock(ctx context.Context, itemID uint, current, reserved, available int) error

	// CreateDispenseRecord persists a dispense record with its lines.
	CreateDispenseRecord(ctx context.Context, record *DispenseRecord) error

	// GetDispenseRecord loads a dispense record with its lines, scoped to
	// the hospital. Returns ErrRecordNotFound if absent.
	GetDispenseRecord(ctx context.Context, hospitalID, recordID uint) (*DispenseRecord, error)

	// FetchExpiringBatches returns live batches expiring in (after, until],
	// ordered ascending by expiry date.
	FetchExpiringBatches(ctx context.Context, hospitalID uint, after, until time.Time) ([]ExpiringBatch, error)

	// ListItems returns the hospital's inventory items.
	ListItems(ctx context.Context, hospitalID uint) ([]InventoryItem, error)

	// ListBatches returns all batches of one item, scoped to the hospital.
	ListBatches(ctx context.Context, hospitalID, itemID uint) ([]InventoryBatch, error)
}

// ExpiringBatch is one row of the expiry scan, joined with its owning item.
type ExpiringBatch struct {
	BatchID         uint      `json:"batch_id"`
	InventoryItemID uint      `json:"inventory_item_id"`
	DrugID          uint      `json:"drug_id"`
	BatchNumber     string    `json:"batch_number"`
	ExpiryDate      time.Time `json:"expiry_date"`
	Quantity        int       `json:"quantity"`
}
