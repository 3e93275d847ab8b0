// internal/domain/pharmacy/repository_gorm.go
package pharmacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	postgres "github.com/your-org/hospital-backend/internal/infrastructure/database/postgres/txctx"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository against the relational
// store. All methods resolve the transaction carried by the context, so a
// coordinator-opened transaction covers every read and write inside it.
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a repository backed by the given handle.
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// conn returns the transaction from ctx, or the base handle.
func (r *GormBatchRepository) conn(ctx context.Context) *gorm.DB {
	if tx := postgres.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// WithTx runs fn inside one serializable transaction. Two concurrent
// dispenses against overlapping batches cannot both commit; the loser gets a
// serialization failure recognized by IsConflict.
func (r *GormBatchRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if postgres.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(postgres.ContextWithTx(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetActiveItem resolves the active inventory item for (hospital, drug).
func (r *GormBatchRepository) GetActiveItem(ctx context.Context, hospitalID, drugID uint) (*InventoryItem, error) {
	var item InventoryItem
	err := r.conn(ctx).
		Where("hospital_id = ? AND drug_id = ? AND is_active = ?", hospitalID, drugID, true).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to resolve inventory item: %w", err)
	}
	return &item, nil
}

// FetchCandidates returns dispensable batches in FEFO order. Ties on expiry
// date fall back to batch id, which follows creation order.
func (r *GormBatchRepository) FetchCandidates(ctx context.Context, itemID uint, now time.Time) ([]InventoryBatch, error) {
	var batches []InventoryBatch
	err := r.conn(ctx).
		Where("inventory_item_id = ? AND current_quantity > 0 AND expiry_date > ? AND status IN ?",
			itemID, now, []BatchStatus{BatchStatusAvailable, BatchStatusLowStock}).
		Order("expiry_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch candidates: %w", err)
	}
	return batches, nil
}

// SaveBatch persists a mutated batch.
func (r *GormBatchRepository) SaveBatch(ctx context.Context, batch *InventoryBatch) error {
	if err := r.conn(ctx).Save(batch).Error; err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

// LiveBatchTotals sums quantities across the item's live batches.
func (r *GormBatchRepository) LiveBatchTotals(ctx context.Context, itemID uint, now time.Time) (int, int, error) {
	var totals struct {
		Current  int
		Reserved int
	}
	err := r.conn(ctx).
		Model(&InventoryBatch{}).
		Select("COALESCE(SUM(current_quantity), 0) AS current, COALESCE(SUM(reserved_quantity), 0) AS reserved").
		Where("inventory_item_id = ? AND expiry_date > ? AND status IN ?",
			itemID, now, []BatchStatus{BatchStatusAvailable, BatchStatusLowStock}).
		Scan(&totals).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum live batches: %w", err)
	}
	return totals.Current, totals.Reserved, nil
}

// SaveItemStock writes the denormalized stock fields onto the item.
func (r *GormBatchRepository) SaveItemStock(ctx context.Context, itemID uint, current, reserved, available int) error {
	err := r.conn(ctx).
		Model(&InventoryItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"current_stock":   current,
			"reserved_stock":  reserved,
			"available_stock": available,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update item stock: %w", err)
	}
	return nil
}

// CreateDispenseRecord persists a dispense record with its lines.
func (r *GormBatchRepository) CreateDispenseRecord(ctx context.Context, record *DispenseRecord) error {
	if err := r.conn(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create dispense record: %w", err)
	}
	return nil
}

// GetDispenseRecord loads a dispense record with its lines.
func (r *GormBatchRepository) GetDispenseRecord(ctx context.Context, hospitalID, recordID uint) (*DispenseRecord, error) {
	var record DispenseRecord
	err := r.conn(ctx).
		Preload("Lines").
		Where("id = ? AND hospital_id = ?", recordID, hospitalID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to load dispense record: %w", err)
	}
	return &record, nil
}

// FetchExpiringBatches returns live batches expiring in (after, until].
func (r *GormBatchRepository) FetchExpiringBatches(ctx context.Context, hospitalID uint, after, until time.Time) ([]ExpiringBatch, error) {
	var rows []ExpiringBatch
	err := r.conn(ctx).
		Table("inventory_batches").
		Select("inventory_batches.id AS batch_id, inventory_batches.inventory_item_id, inventory_items.drug_id, "+
			"inventory_batches.batch_number, inventory_batches.expiry_date, inventory_batches.current_quantity AS quantity").
		Joins("JOIN inventory_items ON inventory_items.id = inventory_batches.inventory_item_id").
		Where("inventory_items.hospital_id = ? AND inventory_batches.current_quantity > 0 AND inventory_batches.status <> ? "+
			"AND inventory_batches.expiry_date > ? AND inventory_batches.expiry_date <= ?",
			hospitalID, BatchStatusRecalled, after, until).
		Order("inventory_batches.expiry_date ASC, inventory_batches.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan expiring batches: %w", err)
	}
	return rows, nil
}

// ListItems returns the hospital's inventory items.
func (r *GormBatchRepository) ListItems(ctx context.Context, hospitalID uint) ([]InventoryItem, error) {
	var items []InventoryItem
	err := r.conn(ctx).
		Where("hospital_id = ?", hospitalID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	return items, nil
}

// ListBatches returns all batches of one item, scoped to the hospital.
func (r *GormBatchRepository) ListBatches(ctx context.Context, hospitalID, itemID uint) ([]InventoryBatch, error) {
	var item InventoryItem
	err := r.conn(ctx).
		Where("id = ? AND hospital_id = ?", itemID, hospitalID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to resolve inventory item: %w", err)
	}

	var batches []InventoryBatch
	err = r.conn(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("expiry_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// IsConflict reports whether err is a transaction-level write conflict the
// caller may retry. Postgres reports these as serialization failures
// (SQLSTATE 40001) or deadlocks (40P01).
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
