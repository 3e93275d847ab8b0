// internal/interfaces/http/handlers/prescription.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/domain/prescription"
	"github.com/your-org/hospital-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PrescriptionHandler handles prescription read endpoints
type PrescriptionHandler struct {
	prescriptionService *prescription.Service
	config              *config.Config
}

// NewPrescriptionHandler creates a new prescription handler
func NewPrescriptionHandler(db *gorm.DB, cfg *config.Config) *PrescriptionHandler {
	return &PrescriptionHandler{
		prescriptionService: prescription.NewService(db),
		config:              cfg,
	}
}

// GetPending handles GET /pharmacy/prescriptions/pending
func (h *PrescriptionHandler) GetPending(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	prescriptions, err := h.prescriptionService.GetPending(c.Request.Context(), hospitalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve prescriptions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending prescriptions retrieved successfully",
		"data":    prescriptions,
	})
}

// GetPrescription handles GET /pharmacy/prescriptions/:id
func (h *PrescriptionHandler) GetPrescription(c *gin.Context) {
	hospitalID, exists := middleware.GetHospitalIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prescription ID"})
		return
	}

	p, err := h.prescriptionService.GetPrescription(c.Request.Context(), hospitalID, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prescription retrieved successfully",
		"data":    p,
	})
}
