// internal/domain/prescription/entity.go
package prescription

import (
	"time"

	"gorm.io/gorm"
)

// Prescription represents a doctor's order the pharmacy dispenses against.
// The dispensing engine only ever flips IsDispensed; everything else is
// written by the clinical surfaces.
type Prescription struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	HospitalID  uint           `gorm:"not null;index" json:"hospital_id"`
	PatientID   uint           `gorm:"not null;index" json:"patient_id"`
	DoctorID    uint           `gorm:"index" json:"doctor_id"`
	Notes       string         `gorm:"type:text" json:"notes"`
	IsDispensed bool           `gorm:"default:false;index" json:"is_dispensed"`
	DispensedAt *time.Time     `json:"dispensed_at,omitempty"`
	DispensedBy *uint          `json:"dispensed_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []PrescriptionItem `gorm:"foreignKey:PrescriptionID" json:"items,omitempty"`
}

// PrescriptionItem is one drug line on a prescription.
type PrescriptionItem struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	PrescriptionID uint   `gorm:"not null;index" json:"prescription_id"`
	DrugID         uint   `gorm:"not null" json:"drug_id"`
	Quantity       int    `gorm:"not null" json:"quantity"`
	Dosage         string `gorm:"size:100" json:"dosage"` // e.g. "1 tablet twice daily"
}
