// internal/domain/hospital/entity.go
package hospital

import (
	"time"

	"gorm.io/gorm"
)

// Hospital represents one tenant. Every inventory item, prescription and
// staff user belongs to exactly one hospital, and every query is scoped by
// hospital id.
type Hospital struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Code      string         `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Address   string         `gorm:"type:text" json:"address"`
	City      string         `gorm:"size:50" json:"city"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Email     string         `gorm:"size:100" json:"email"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
