// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/your-org/hospital-backend/internal/domain/drug"
	"github.com/your-org/hospital-backend/internal/domain/hospital"
	"github.com/your-org/hospital-backend/internal/domain/pharmacy"
	"github.com/your-org/hospital-backend/internal/domain/prescription"
	"github.com/your-org/hospital-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Tenancy - Base tables
		&hospital.Hospital{},
		&user.User{},

		// Drug master
		&drug.Drug{},

		// Pharmacy inventory
		&pharmacy.InventoryItem{},
		&pharmacy.InventoryBatch{},

		// Prescriptions
		&prescription.Prescription{},
		&prescription.PrescriptionItem{},

		// Dispense records - Dependent tables
		&pharmacy.DispenseRecord{},
		&pharmacy.DispenseLine{},
	}

	// Run auto-migration for each model
	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_users_hospital_role ON users(hospital_id, role)",

		// Drug indexes
		"CREATE INDEX IF NOT EXISTS idx_drugs_name_active ON drugs(name, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_drugs_generic_name ON drugs(generic_name)",

		// Inventory item indexes
		"CREATE INDEX IF NOT EXISTS idx_inventory_items_hospital_active ON inventory_items(hospital_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_items_drug ON inventory_items(drug_id)",

		// Batch indexes - CRITICAL FOR FEFO ALLOCATION
		"CREATE INDEX IF NOT EXISTS idx_inventory_batches_item_expiry ON inventory_batches(inventory_item_id, expiry_date ASC)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_batches_item_status ON inventory_batches(inventory_item_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_batches_expiry ON inventory_batches(expiry_date)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_batches_batch_number ON inventory_batches(batch_number)",

		// Dispense record indexes
		"CREATE INDEX IF NOT EXISTS idx_dispense_records_hospital_created ON dispense_records(hospital_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_dispense_records_prescription ON dispense_records(prescription_id)",
		"CREATE INDEX IF NOT EXISTS idx_dispense_records_dispensed_by ON dispense_records(dispensed_by)",
		"CREATE INDEX IF NOT EXISTS idx_dispense_lines_record ON dispense_lines(dispense_record_id)",
		"CREATE INDEX IF NOT EXISTS idx_dispense_lines_batch ON dispense_lines(batch_id)",

		// Prescription indexes
		"CREATE INDEX IF NOT EXISTS idx_prescriptions_hospital_dispensed ON prescriptions(hospital_id, is_dispensed)",
		"CREATE INDEX IF NOT EXISTS idx_prescriptions_patient ON prescriptions(patient_id)",
		"CREATE INDEX IF NOT EXISTS idx_prescription_items_prescription ON prescription_items(prescription_id)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	hospitalID, err := m.seedHospital()
	if err != nil {
		return fmt.Errorf("failed to seed hospital: %w", err)
	}

	if err := m.seedAdminUser(hospitalID); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := m.seedDrugs(); err != nil {
		return fmt.Errorf("failed to seed drugs: %w", err)
	}

	if err := m.seedInventory(hospitalID); err != nil {
		return fmt.Errorf("failed to seed inventory: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// seedHospital creates the default hospital tenant
func (m *Migration) seedHospital() (uint, error) {
	log.Println("🏥 Seeding hospital...")

	var existing hospital.Hospital
	result := m.db.Where("code = ?", "GENERAL").First(&existing)
	if result.Error == nil {
		log.Printf("⏭️ Hospital already exists with ID: %d", existing.ID)
		return existing.ID, nil
	}

	h := hospital.Hospital{
		Name:     "General Hospital",
		Code:     "GENERAL",
		Address:  "1 Hospital Road",
		Phone:    "+1-555-0100",
		Email:    "pharmacy@general-hospital.example.com",
		IsActive: true,
	}
	if err := m.db.Create(&h).Error; err != nil {
		return 0, fmt.Errorf("failed to create hospital: %w", err)
	}

	log.Printf("✅ Created hospital: %s (ID: %d)", h.Name, h.ID)
	return h.ID, nil
}

// seedAdminUser creates the default admin account
func (m *Migration) seedAdminUser(hospitalID uint) error {
	log.Println("👤 Seeding admin user...")

	var existing user.User
	result := m.db.Where("email = ?", "admin@example.com").First(&existing)
	if result.Error == nil {
		log.Printf("⏭️ Admin user already exists with ID: %d", existing.ID)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	adminUser := user.User{
		HospitalID:   hospitalID,
		Email:        "admin@example.com",
		PasswordHash: string(hashedPassword),
		FirstName:    "Admin",
		LastName:     "User",
		Role:         user.RoleAdmin,
		IsActive:     true,
	}

	if err := m.db.Create(&adminUser).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	log.Println("✅ Created admin user: admin@example.com (password: Admin123)")
	return nil
}

// seedDrugs creates a small drug formulary for development
func (m *Migration) seedDrugs() error {
	log.Println("💊 Seeding drugs...")

	drugs := []drug.Drug{
		{
			Name:         "Paracetamol 500mg",
			GenericName:  "Paracetamol",
			Form:         drug.FormTablet,
			Strength:     "500mg",
			Manufacturer: "Acme Pharma",
			IsActive:     true,
		},
		{
			Name:         "Amoxicillin 250mg",
			GenericName:  "Amoxicillin",
			Form:         drug.FormCapsule,
			Strength:     "250mg",
			Manufacturer: "Acme Pharma",
			IsActive:     true,
		},
		{
			Name:         "Insulin Glargine 100U/ml",
			GenericName:  "Insulin Glargine",
			Form:         drug.FormInjection,
			Strength:     "100U/ml",
			Manufacturer: "BioMed Labs",
			IsActive:     true,
		},
	}

	for _, d := range drugs {
		var existing drug.Drug
		result := m.db.Where("name = ?", d.Name).First(&existing)
		if result.Error != nil {
			if err := m.db.Create(&d).Error; err != nil {
				return err
			}
			log.Printf("✅ Created drug: %s", d.Name)
		} else {
			log.Printf("⏭️ Drug already exists: %s", d.Name)
		}
	}

	return nil
}

// seedInventory creates inventory items with expiry-staggered batches
func (m *Migration) seedInventory(hospitalID uint) error {
	log.Println("📦 Seeding inventory...")

	var count int64
	m.db.Model(&pharmacy.InventoryItem{}).Where("hospital_id = ?", hospitalID).Count(&count)
	if count > 0 {
		log.Println("⏭️ Inventory already seeded")
		return nil
	}

	var paracetamol drug.Drug
	if err := m.db.Where("generic_name = ?", "Paracetamol").First(&paracetamol).Error; err != nil {
		log.Println("⚠️ No drugs found for inventory seeding")
		return nil
	}

	now := time.Now().UTC()
	item := pharmacy.InventoryItem{
		HospitalID:        hospitalID,
		DrugID:            paracetamol.ID,
		CurrentStock:      15,
		AvailableStock:    15,
		LowStockThreshold: 0,
		IsActive:          true,
	}
	if err := m.db.Create(&item).Error; err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	// Two batches with staggered expiries so the earliest-expiry batch drains first
	batches := []pharmacy.InventoryBatch{
		{
			InventoryItemID: item.ID,
			BatchNumber:     "B1-2026-01",
			ExpiryDate:      now.AddDate(0, 0, 20),
			CurrentQuantity: 5,
			UnitPrice:       250,
			Status:          pharmacy.BatchStatusAvailable,
		},
		{
			InventoryItemID: item.ID,
			BatchNumber:     "B2-2026-02",
			ExpiryDate:      now.AddDate(0, 2, 0),
			CurrentQuantity: 10,
			UnitPrice:       250,
			Status:          pharmacy.BatchStatusAvailable,
		},
	}
	for _, b := range batches {
		if err := m.db.Create(&b).Error; err != nil {
			return fmt.Errorf("failed to create batch %s: %w", b.BatchNumber, err)
		}
		log.Printf("✅ Created batch: %s (qty %d)", b.BatchNumber, b.CurrentQuantity)
	}

	return nil
}

// GetTableInfo returns information about database tables
func (m *Migration) GetTableInfo() error {
	var tables []string

	// Get list of tables
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	log.Println("📊 Database Tables Information:")
	log.Println("================================")

	totalRecords := int64(0)
	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		totalRecords += count

		status := "✅"
		if count == 0 {
			status = "📭"
		}

		log.Printf("%s %-25s | %d records", status, table, count)
	}

	log.Println("================================")
	log.Printf("📈 Total records across all tables: %d", totalRecords)
	log.Printf("🗂️ Total tables: %d", len(tables))

	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("⚠️ WARNING: Dropping all database tables...")

	// Define tables in reverse dependency order
	tables := []string{
		"dispense_lines",
		"dispense_records",
		"prescription_items",
		"prescriptions",
		"inventory_batches",
		"inventory_items",
		"drugs",
		"users",
		"hospitals",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("⚠️ Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("🗑️ Dropped table: %s", table)
		}
	}

	log.Println("✅ All tables dropped successfully")
	return nil
}
