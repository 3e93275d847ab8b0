package pharmacy

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeBatchRepo is an in-memory BatchRepository. WithTx snapshots all state
// and restores it when fn fails, matching the rollback contract of the real
// implementation. Setting conflictsLeft makes the next n transactions fail
// with a postgres serialization error.
type fakeBatchRepo struct {
	items   []*InventoryItem
	batches []*InventoryBatch
	records []*DispenseRecord

	conflictsLeft int
	txCalls       int
	nextRecordID  uint
}

func newFakeBatchRepo(items []*InventoryItem, batches []*InventoryBatch) *fakeBatchRepo {
	return &fakeBatchRepo{
		items:        items,
		batches:      batches,
		nextRecordID: 1,
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

func (f *fakeBatchRepo) snapshot() ([]*InventoryItem, []*InventoryBatch, []*DispenseRecord) {
	items := make([]*InventoryItem, len(f.items))
	for i, it := range f.items {
		cp := *it
		items[i] = &cp
	}
	batches := make([]*InventoryBatch, len(f.batches))
	for i, b := range f.batches {
		cp := *b
		batches[i] = &cp
	}
	records := make([]*DispenseRecord, len(f.records))
	copy(records, f.records)
	return items, batches, records
}

func (f *fakeBatchRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return serializationFailure()
	}

	items, batches, records := f.snapshot()
	if err := fn(ctx); err != nil {
		f.items, f.batches, f.records = items, batches, records
		return err
	}
	return nil
}

func (f *fakeBatchRepo) GetActiveItem(ctx context.Context, hospitalID, drugID uint) (*InventoryItem, error) {
	for _, it := range f.items {
		if it.HospitalID == hospitalID && it.DrugID == drugID && it.IsActive {
			return it, nil
		}
	}
	return nil, ErrItemNotFound
}

func (f *fakeBatchRepo) FetchCandidates(ctx context.Context, itemID uint, now time.Time) ([]InventoryBatch, error) {
	var out []InventoryBatch
	for _, b := range f.batches {
		if b.InventoryItemID != itemID || b.CurrentQuantity <= 0 {
			continue
		}
		if !b.ExpiryDate.After(now) {
			continue
		}
		if b.Status != BatchStatusAvailable && b.Status != BatchStatusLowStock {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpiryDate.Equal(out[j].ExpiryDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].ExpiryDate.Before(out[j].ExpiryDate)
	})
	return out, nil
}

func (f *fakeBatchRepo) SaveBatch(ctx context.Context, batch *InventoryBatch) error {
	for i, b := range f.batches {
		if b.ID == batch.ID {
			cp := *batch
			f.batches[i] = &cp
			return nil
		}
	}
	cp := *batch
	f.batches = append(f.batches, &cp)
	return nil
}

func (f *fakeBatchRepo) LiveBatchTotals(ctx context.Context, itemID uint, now time.Time) (int, int, error) {
	current, reserved := 0, 0
	for _, b := range f.batches {
		if b.InventoryItemID != itemID {
			continue
		}
		if !b.ExpiryDate.After(now) {
			continue
		}
		if b.Status != BatchStatusAvailable && b.Status != BatchStatusLowStock {
			continue
		}
		current += b.CurrentQuantity
		reserved += b.ReservedQuantity
	}
	return current, reserved, nil
}

func (f *fakeBatchRepo) SaveItemStock(ctx context.Context, itemID uint, current, reserved, available int) error {
	for _, it := range f.items {
		if it.ID == itemID {
			it.CurrentStock = current
			it.ReservedStock = reserved
			it.AvailableStock = available
			return nil
		}
	}
	return ErrItemNotFound
}

func (f *fakeBatchRepo) CreateDispenseRecord(ctx context.Context, record *DispenseRecord) error {
	record.ID = f.nextRecordID
	f.nextRecordID++
	f.records = append(f.records, record)
	return nil
}

func (f *fakeBatchRepo) GetDispenseRecord(ctx context.Context, hospitalID, recordID uint) (*DispenseRecord, error) {
	for _, r := range f.records {
		if r.ID == recordID && r.HospitalID == hospitalID {
			return r, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeBatchRepo) FetchExpiringBatches(ctx context.Context, hospitalID uint, after, until time.Time) ([]ExpiringBatch, error) {
	itemsByID := make(map[uint]*InventoryItem, len(f.items))
	for _, it := range f.items {
		itemsByID[it.ID] = it
	}

	var rows []ExpiringBatch
	for _, b := range f.batches {
		item, ok := itemsByID[b.InventoryItemID]
		if !ok || item.HospitalID != hospitalID {
			continue
		}
		if b.CurrentQuantity <= 0 || b.Status == BatchStatusRecalled {
			continue
		}
		if !b.ExpiryDate.After(after) || b.ExpiryDate.After(until) {
			continue
		}
		rows = append(rows, ExpiringBatch{
			BatchID:         b.ID,
			InventoryItemID: b.InventoryItemID,
			DrugID:          item.DrugID,
			BatchNumber:     b.BatchNumber,
			ExpiryDate:      b.ExpiryDate,
			Quantity:        b.CurrentQuantity,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ExpiryDate.Equal(rows[j].ExpiryDate) {
			return rows[i].BatchID < rows[j].BatchID
		}
		return rows[i].ExpiryDate.Before(rows[j].ExpiryDate)
	})
	return rows, nil
}

func (f *fakeBatchRepo) ListItems(ctx context.Context, hospitalID uint) ([]InventoryItem, error) {
	var out []InventoryItem
	for _, it := range f.items {
		if it.HospitalID == hospitalID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (f *fakeBatchRepo) ListBatches(ctx context.Context, hospitalID, itemID uint) ([]InventoryBatch, error) {
	found := false
	for _, it := range f.items {
		if it.ID == itemID && it.HospitalID == hospitalID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrItemNotFound
	}

	var out []InventoryBatch
	for _, b := range f.batches {
		if b.InventoryItemID == itemID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// batchByID looks a batch up directly for assertions.
func (f *fakeBatchRepo) batchByID(id uint) *InventoryBatch {
	for _, b := range f.batches {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// itemByID looks an item up directly for assertions.
func (f *fakeBatchRepo) itemByID(id uint) *InventoryItem {
	for _, it := range f.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
