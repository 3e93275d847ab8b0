// internal/domain/prescription/service.go
package prescription

import (
	"context"
	"fmt"
	"time"

	postgres "github.com/your-org/hospital-backend/internal/infrastructure/database/postgres/txctx"
	"gorm.io/gorm"
)

// Service handles prescription business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new prescription service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// conn returns the transaction carried by ctx, or the base handle. The
// dispensing orchestrator calls MarkDispensed inside its own transaction.
func (s *Service) conn(ctx context.Context) *gorm.DB {
	if tx := postgres.TxFromContext(ctx); tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// GetPrescription retrieves a prescription with its items, scoped to the hospital
func (s *Service) GetPrescription(ctx context.Context, hospitalID, id uint) (*Prescription, error) {
	var p Prescription
	err := s.conn(ctx).
		Preload("Items").
		Where("id = ? AND hospital_id = ?", id, hospitalID).
		First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("prescription not found")
	}
	return &p, nil
}

// GetPending retrieves undispensed prescriptions for the hospital
func (s *Service) GetPending(ctx context.Context, hospitalID uint) ([]Prescription, error) {
	var prescriptions []Prescription
	err := s.conn(ctx).
		Preload("Items").
		Where("hospital_id = ? AND is_dispensed = ?", hospitalID, false).
		Order("created_at ASC").
		Find(&prescriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve prescriptions: %w", err)
	}
	return prescriptions, nil
}

// MarkDispensed flips the dispensed flag exactly once. A prescription that
// was already dispensed is an error so a double dispense cannot slip
// through unnoticed.
func (s *Service) MarkDispensed(ctx context.Context, hospitalID, prescriptionID, actorID uint) error {
	now := time.Now().UTC()
	result := s.conn(ctx).
		Model(&Prescription{}).
		Where("id = ? AND hospital_id = ? AND is_dispensed = ?", prescriptionID, hospitalID, false).
		Updates(map[string]interface{}{
			"is_dispensed": true,
			"dispensed_at": now,
			"dispensed_by": actorID,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark prescription dispensed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("prescription not found or already dispensed")
	}
	return nil
}
