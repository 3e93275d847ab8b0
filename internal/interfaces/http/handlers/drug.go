// internal/interfaces/http/handlers/drug.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/hospital-backend/internal/config"
	"github.com/your-org/hospital-backend/internal/domain/drug"
	"gorm.io/gorm"
)

// DrugHandler handles drug catalog endpoints
type DrugHandler struct {
	drugService *drug.Service
	config      *config.Config
}

// NewDrugHandler creates a new drug handler
func NewDrugHandler(db *gorm.DB, cfg *config.Config) *DrugHandler {
	return &DrugHandler{
		drugService: drug.NewService(db),
		config:      cfg,
	}
}

// GetDrugs handles GET /drugs
func (h *DrugHandler) GetDrugs(c *gin.Context) {
	drugs, err := h.drugService.GetDrugs(c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve drugs",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Drugs retrieved successfully",
		"data":    drugs,
	})
}

// GetDrug handles GET /drugs/:id
func (h *DrugHandler) GetDrug(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid drug ID",
		})
		return
	}

	d, err := h.drugService.GetDrug(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Drug retrieved successfully",
		"data":    d,
	})
}

// CreateDrug handles POST /admin/drugs
func (h *DrugHandler) CreateDrug(c *gin.Context) {
	var req drug.CreateDrugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	d, err := h.drugService.CreateDrug(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Drug created successfully",
		"data":    d,
	})
}

// DeactivateDrug handles DELETE /admin/drugs/:id
func (h *DrugHandler) DeactivateDrug(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid drug ID",
		})
		return
	}

	if err := h.drugService.DeactivateDrug(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Drug deactivated successfully",
	})
}
