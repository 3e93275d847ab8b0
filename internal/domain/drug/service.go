// internal/domain/drug/service.go
package drug

import (
	"fmt"

	"gorm.io/gorm"
)

// Service handles drug master lookups
type Service struct {
	db *gorm.DB
}

// NewService creates a new drug service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateDrugRequest represents drug creation data
type CreateDrugRequest struct {
	Name         string     `json:"name" binding:"required"`
	GenericName  string     `json:"generic_name"`
	Form         DosageForm `json:"form"`
	Strength     string     `json:"strength"`
	Manufacturer string     `json:"manufacturer"`
}

// CreateDrug adds a drug to the master catalog
func (s *Service) CreateDrug(req *CreateDrugRequest) (*Drug, error) {
	d := &Drug{
		Name:         req.Name,
		GenericName:  req.GenericName,
		Form:         req.Form,
		Strength:     req.Strength,
		Manufacturer: req.Manufacturer,
		IsActive:     true,
	}
	if err := s.db.Create(d).Error; err != nil {
		return nil, fmt.Errorf("failed to create drug: %w", err)
	}
	return d, nil
}

// GetDrug retrieves a drug by id
func (s *Service) GetDrug(id uint) (*Drug, error) {
	var d Drug
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&d).Error; err != nil {
		return nil, fmt.Errorf("drug not found")
	}
	return &d, nil
}

// GetDrugs retrieves active drugs, optionally filtered by name
func (s *Service) GetDrugs(search string) ([]Drug, error) {
	query := s.db.Where("is_active = ?", true)
	if search != "" {
		query = query.Where("name ILIKE ? OR generic_name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var drugs []Drug
	if err := query.Order("name ASC").Find(&drugs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve drugs: %w", err)
	}
	return drugs, nil
}

// DeactivateDrug soft-disables a drug without touching its inventory history
func (s *Service) DeactivateDrug(id uint) error {
	result := s.db.Model(&Drug{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate drug: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("drug not found")
	}
	return nil
}
