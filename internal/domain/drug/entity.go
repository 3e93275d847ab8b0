// internal/domain/drug/entity.go
package drug

import (
	"time"

	"gorm.io/gorm"
)

// DosageForm represents how a drug is administered
type DosageForm string

const (
	FormTablet    DosageForm = "tablet"
	FormCapsule   DosageForm = "capsule"
	FormSyrup     DosageForm = "syrup"
	FormInjection DosageForm = "injection"
	FormOintment  DosageForm = "ointment"
	FormDrops     DosageForm = "drops"
)

// Drug represents one entry in the drug master catalog. Inventory items
// reference drugs by id; the catalog itself carries no stock.
type Drug struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;size:200;index" json:"name"`
	GenericName  string         `gorm:"size:200;index" json:"generic_name"`
	Form         DosageForm     `gorm:"size:20" json:"form"`
	Strength     string         `gorm:"size:50" json:"strength"` // e.g. "500mg"
	Manufacturer string         `gorm:"size:200" json:"manufacturer"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
