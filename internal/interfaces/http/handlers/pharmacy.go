// internal/interfaces/http/handlers/pharmacy.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/hospital-backend/internal/clock"
	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/domain/drug"
	"github.com/your-org/hospital-backend/internal/domain/pharmacy"
	"github.com/your-org/hospital-backend/internal/domain/prescription"
	"github.com/your-org/hospital-backend/internal/interfaces/http/middleware"
	"github.com/your-org/hospital-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// PharmacyHandler handles dispensing, stock and expiry endpoints
type PharmacyHandler struct {
	repo                *pharmacy.GormBatchRepository
	coordinator         *pharmacy.Coordinator
	orchestrator        *pharmacy.Orchestrator
	monitor             *pharmacy.ExpiryMonitor
	drugService         *drug.Service
	prescriptionService *prescription.Service
	pdfService          *pdf.Service
	redisClient         *redis.Client
	config              *config.Config
}

// NewPharmacyHandler creates a new pharmacy handler
func NewPharmacyHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PharmacyHandler {
	repo := pharmacy.NewGormBatchRepository(db)
	clk := clock.NewSystem()
	coordinator := pharmacy.NewCoordinator(repo, clk, cfg)
	prescriptions := prescription.NewService(db)

	return &PharmacyHandler{
		repo:                repo,
		coordinator:         coordinator,
		orchestrator:        pharmacy.NewOrchestrator(repo, coordinator, prescriptions),
		monitor:             pharmacy.NewExpiryMonitor(repo, clk),
		drugService:         drug.NewService(db),
		prescriptionService: prescriptions,
		pdfService:          pdf.NewService(cfg),
		redisClient:         redisClient,
		config:              cfg,
	}
}

// STOCK ENDPOINTS

// CheckStock handles GET /pharmacy/stock/:drugId
func (h *PharmacyHandler) CheckStock(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	drugID, err := strconv.ParseUint(c.Param("drugId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid drug ID"})
		return
	}

	requiredQty := 0
	if raw := c.Query("quantity"); raw != "" {
		requiredQty, err = strconv.Atoi(raw)
		if err != nil || requiredQty < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quantity"})
			return
		}
	}

	// Plain availability reports are cacheable; quantity checks always hit
	// the database.
	if requiredQty == 0 {
		if cached := h.cachedStock(c.Request.Context(), hospitalID, uint(drugID)); cached != nil {
			c.JSON(http.StatusOK, gin.H{
				"message": "Stock retrieved successfully",
				"data":    cached,
				"cached":  true,
			})
			return
		}
	}

	report, err := h.coordinator.CheckStock(c.Request.Context(), hospitalID, uint(drugID), requiredQty)
	if err != nil {
		status := http.StatusInternalServerError
		if err == pharmacy.ErrItemNotFound {
			status = http.StatusNotFound
		} else if pharmacy.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if requiredQty == 0 {
		h.cacheStock(c.Request.Context(), hospitalID, uint(drugID), report)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock retrieved successfully",
		"data":    report,
	})
}

// ListItems handles GET /pharmacy/items
func (h *PharmacyHandler) ListItems(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	items, err := h.repo.ListItems(c.Request.Context(), hospitalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inventory items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Inventory items retrieved successfully",
		"data":    items,
	})
}

// ListBatches handles GET /pharmacy/items/:id/batches
func (h *PharmacyHandler) ListBatches(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	batches, err := h.repo.ListBatches(c.Request.Context(), hospitalID, uint(itemID))
	if err != nil {
		if err == pharmacy.ErrItemNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve batches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batches retrieved successfully",
		"data":    batches,
	})
}

// DISPENSE ENDPOINTS

// DispenseRequest represents a single-drug dispense request
type DispenseRequest struct {
	DrugID   uint `json:"drug_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required"`
}

// Dispense handles POST /pharmacy/dispense
func (h *PharmacyHandler) Dispense(c *gin.Context) {
	hospitalID, userID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req DispenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := pharmacy.RetryOnConflict(
		c.Request.Context(),
		h.config.Pharmacy.DispenseMaxRetries,
		h.config.Pharmacy.DispenseRetryBackoff,
		func(ctx context.Context) (*pharmacy.DispenseResult, error) {
			return h.coordinator.Dispense(ctx, hospitalID, req.DrugID, req.Quantity, userID)
		},
	)
	if err != nil {
		if pharmacy.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispense"})
		return
	}

	if result.Dispensed() {
		h.invalidateStock(c.Request.Context(), hospitalID, req.DrugID)
	}

	c.JSON(statusForOutcome(result.Outcome), gin.H{
		"message": messageForOutcome(result.Outcome),
		"data":    result,
	})
}

// DispensePrescription handles POST /pharmacy/prescriptions/:id/dispense
func (h *PharmacyHandler) DispensePrescription(c *gin.Context) {
	hospitalID, userID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	prescriptionID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prescription ID"})
		return
	}

	p, err := h.prescriptionService.GetPrescription(c.Request.Context(), hospitalID, uint(prescriptionID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if p.IsDispensed {
		c.JSON(http.StatusConflict, gin.H{"error": "Prescription already dispensed"})
		return
	}

	items := make([]pharmacy.RequestedItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, pharmacy.RequestedItem{
			DrugID:   item.DrugID,
			Quantity: item.Quantity,
		})
	}

	pid := uint(prescriptionID)
	var result *pharmacy.OrchestratedResult
	for attempt := 1; attempt <= h.config.Pharmacy.DispenseMaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-c.Request.Context().Done():
				c.JSON(http.StatusRequestTimeout, gin.H{"error": "Request timeout"})
				return
			case <-time.After(h.config.Pharmacy.DispenseRetryBackoff):
			}
		}
		result, err = h.orchestrator.DispenseAll(c.Request.Context(), hospitalID, &pid, items, userID)
		if err != nil || result.Outcome != pharmacy.OutcomeConflict {
			break
		}
	}
	if err != nil {
		if pharmacy.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to dispense prescription"})
		return
	}

	if result.Dispensed() {
		for _, item := range items {
			h.invalidateStock(c.Request.Context(), hospitalID, item.DrugID)
		}
	}

	c.JSON(statusForOutcome(result.Outcome), gin.H{
		"message": messageForOutcome(result.Outcome),
		"data":    result,
	})
}

// RECORD ENDPOINTS

// GetDispenseRecord handles GET /pharmacy/dispenses/:id
func (h *PharmacyHandler) GetDispenseRecord(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recordID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	record, err := h.repo.GetDispenseRecord(c.Request.Context(), hospitalID, uint(recordID))
	if err != nil {
		if err == pharmacy.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dispense record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dispense record retrieved successfully",
		"data":    record,
	})
}

// GetReceipt handles GET /pharmacy/dispenses/:id/receipt
func (h *PharmacyHandler) GetReceipt(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recordID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	record, err := h.repo.GetDispenseRecord(c.Request.Context(), hospitalID, uint(recordID))
	if err != nil {
		if err == pharmacy.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dispense record"})
		return
	}

	// Resolve drug names for the receipt lines
	drugNames := make(map[uint]string, len(record.Lines))
	for _, line := range record.Lines {
		if _, ok := drugNames[line.DrugID]; ok {
			continue
		}
		if d, err := h.drugService.GetDrug(line.DrugID); err == nil {
			drugNames[line.DrugID] = d.Name
		} else {
			drugNames[line.DrugID] = fmt.Sprintf("Drug #%d", line.DrugID)
		}
	}

	receipt, err := h.pdfService.GenerateReceipt(record, drugNames)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", record.RecordNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", receipt.Bytes())
}

// EXPIRY ENDPOINTS

// ScanExpiring handles GET /pharmacy/expiring
func (h *PharmacyHandler) ScanExpiring(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	days := h.config.Pharmacy.ExpiryScanDays
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid scan window"})
			return
		}
		days = parsed
	}

	alerts, err := h.monitor.ScanExpiring(c.Request.Context(), hospitalID, days)
	if err != nil {
		if pharmacy.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan expiring batches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Expiring batches retrieved successfully",
		"data": gin.H{
			"alerts":      alerts,
			"within_days": days,
			"count":       len(alerts),
		},
	})
}

// Helpers

// requireTenant extracts the hospital and user IDs set by the auth middleware.
func (h *PharmacyHandler) requireTenant(c *gin.Context) (hospitalID, userID uint, ok bool) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}
	userID, exists = middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, 0, false
	}
	return hospitalID, userID, true
}

func stockCacheKey(hospitalID, drugID uint) string {
	return fmt.Sprintf("stock:%d:%d", hospitalID, drugID)
}

// cachedStock returns the cached availability report, or nil on any miss.
func (h *PharmacyHandler) cachedStock(ctx context.Context, hospitalID, drugID uint) *pharmacy.StockAvailability {
	raw, err := h.redisClient.Get(ctx, stockCacheKey(hospitalID, drugID)).Result()
	if err != nil {
		return nil
	}
	var report pharmacy.StockAvailability
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil
	}
	return &report
}

// cacheStock stores an availability report; cache failures are ignored.
func (h *PharmacyHandler) cacheStock(ctx context.Context, hospitalID, drugID uint, report *pharmacy.StockAvailability) {
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	h.redisClient.Set(ctx, stockCacheKey(hospitalID, drugID), raw, h.config.Pharmacy.StockCacheTTL)
}

// invalidateStock drops the cached report after a successful dispense.
func (h *PharmacyHandler) invalidateStock(ctx context.Context, hospitalID, drugID uint) {
	h.redisClient.Del(ctx, stockCacheKey(hospitalID, drugID))
}

// statusForOutcome maps a dispense outcome to an HTTP status code.
func statusForOutcome(outcome pharmacy.DispenseOutcome) int {
	switch outcome {
	case pharmacy.OutcomeDispensed:
		return http.StatusCreated
	case pharmacy.OutcomeItemNotFound:
		return http.StatusNotFound
	default:
		// no_stock, insufficient_stock and conflict all describe state the
		// caller must reconcile before retrying
		return http.StatusConflict
	}
}

func messageForOutcome(outcome pharmacy.DispenseOutcome) string {
	switch outcome {
	case pharmacy.OutcomeDispensed:
		return "Dispensed successfully"
	case pharmacy.OutcomeNoStock:
		return "No dispensable stock"
	case pharmacy.OutcomeInsufficientStock:
		return "Insufficient stock"
	case pharmacy.OutcomeConflict:
		return "Concurrent dispense conflict, please retry"
	case pharmacy.OutcomeItemNotFound:
		return "Inventory item not found"
	default:
		return string(outcome)
	}
}
