// internal/domain/pharmacy/entity.go
package pharmacy

import (
	"time"

	"gorm.io/gorm"
)

// BatchStatus represents the status of a stock batch
type BatchStatus string

const (
	BatchStatusAvailable  BatchStatus = "available"
	BatchStatusLowStock   BatchStatus = "low_stock"
	BatchStatusOutOfStock BatchStatus = "out_of_stock"
	BatchStatusExpired    BatchStatus = "expired"
	BatchStatusRecalled   BatchStatus = "recalled"
)

// InventoryItem represents aggregate stock for one drug in one hospital.
// The stock fields are denormalized from the item's live batches; the
// aggregator is the only writer of these fields.
type InventoryItem struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	HospitalID     uint `gorm:"not null;uniqueIndex:idx_inventory_items_hospital_drug" json:"hospital_id"`
	DrugID         uint `gorm:"not null;uniqueIndex:idx_inventory_items_hospital_drug" json:"drug_id"`
	CurrentStock   int  `gorm:"default:0" json:"current_stock"`
	ReservedStock  int  `gorm:"default:0" json:"reserved_stock"`
	AvailableStock int  `gorm:"default:0" json:"available_stock"`

	// LowStockThreshold overrides the configured default when positive.
	LowStockThreshold int            `gorm:"default:0" json:"low_stock_threshold"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Batches []InventoryBatch `gorm:"foreignKey:InventoryItemID" json:"batches,omitempty"`
}

// InventoryBatch represents one received lot of a drug, tracked separately
// because of its own expiry date and price. Batches are never deleted;
// zero-quantity batches remain as audit trail.
type InventoryBatch struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	InventoryItemID  uint        `gorm:"not null;index" json:"inventory_item_id"`
	BatchNumber      string      `gorm:"not null;size:50" json:"batch_number"`
	ExpiryDate       time.Time   `gorm:"not null;index" json:"expiry_date"`
	CurrentQuantity  int         `gorm:"default:0" json:"current_quantity"`
	ReservedQuantity int         `gorm:"default:0" json:"reserved_quantity"`
	UnitPrice        int64       `gorm:"default:0" json:"unit_price"` // In cents
	Status           BatchStatus `gorm:"default:'available'" json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	// Relationships
	InventoryItem InventoryItem `gorm:"foreignKey:InventoryItemID" json:"inventory_item,omitempty"`
}

// DispenseRecord is an immutable record of one completed dispense. It is
// created exactly once per successful dispense and never mutated afterwards.
type DispenseRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RecordNumber   string    `gorm:"uniqueIndex;not null;size:50" json:"record_number"`
	HospitalID     uint      `gorm:"not null;index" json:"hospital_id"`
	PrescriptionID *uint     `gorm:"index" json:"prescription_id,omitempty"`
	TotalQuantity  int       `gorm:"not null" json:"total_quantity"`
	TotalAmount    int64     `gorm:"not null" json:"total_amount"` // In cents
	DispensedBy    uint      `gorm:"index" json:"dispensed_by"`
	CreatedAt      time.Time `json:"created_at"`

	// Relationships
	Lines []DispenseLine `gorm:"foreignKey:DispenseRecordID" json:"lines,omitempty"`
}

// DispenseLine records the quantity consumed from one batch.
type DispenseLine struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	DispenseRecordID uint   `gorm:"not null;index" json:"dispense_record_id"`
	InventoryItemID  uint   `gorm:"not null;index" json:"inventory_item_id"`
	DrugID           uint   `gorm:"not null" json:"drug_id"`
	InventoryBatchID uint   `gorm:"not null" json:"inventory_batch_id"`
	BatchNumber      string `gorm:"size:50" json:"batch_number"`
	Quantity         int    `gorm:"not null" json:"quantity"`
	UnitPrice        int64  `gorm:"not null" json:"unit_price"`
	TotalPrice       int64  `gorm:"not null" json:"total_price"`
}

// Entity methods

// AvailableQuantity returns the quantity not held by a reservation.
func (b *InventoryBatch) AvailableQuantity() int {
	return b.CurrentQuantity - b.ReservedQuantity
}

// IsExpired reports whether the batch has expired at the given instant.
func (b *InventoryBatch) IsExpired(now time.Time) bool {
	return !b.ExpiryDate.After(now)
}

// ComputeStatus derives the batch status from its quantity and expiry date.
// Recalled batches keep their status; otherwise the status is a pure
// function of (quantity, expiry, now, threshold).
func (b *InventoryBatch) ComputeStatus(now time.Time, lowStockThreshold int) BatchStatus {
	if b.Status == BatchStatusRecalled {
		return BatchStatusRecalled
	}
	if b.IsExpired(now) {
		return BatchStatusExpired
	}
	if b.CurrentQuantity == 0 {
		return BatchStatusOutOfStock
	}
	if b.CurrentQuantity < lowStockThreshold {
		return BatchStatusLowStock
	}
	return BatchStatusAvailable
}

// IsDispensable reports whether stock may be allocated from this batch.
func (b *InventoryBatch) IsDispensable(now time.Time) bool {
	if b.Status == BatchStatusRecalled || b.IsExpired(now) {
		return false
	}
	return b.AvailableQuantity() > 0
}
