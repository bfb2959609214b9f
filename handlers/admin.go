package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	propertyRepo "stayloom/database/repository/property"
	"stayloom/models"
	"stayloom/utils"
)

// AdminHandler covers the property admin surface: create, inspect and
// pause/resume. Pause takes effect immediately because the active flag is
// read fresh on every negotiation and execution.
type AdminHandler struct {
	properties propertyRepo.PropertyRepository
}

// NewAdminHandler creates the handler.
func NewAdminHandler(properties propertyRepo.PropertyRepository) *AdminHandler {
	return &AdminHandler{properties: properties}
}

// CreateProperty handles POST /api/admin/properties.
func (h *AdminHandler) CreateProperty(c *gin.Context) {
	var input struct {
		PropertyID string             `json:"property_id" binding:"required"`
		Name       string             `json:"name" binding:"required"`
		Tier       string             `json:"tier"`
		BaseRates  map[string]float64 `json:"base_rates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Tier == "" {
		input.Tier = models.TierStandard
	}
	if input.Tier != models.TierStandard && input.Tier != models.TierLuxury {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be standard or luxury"})
		return
	}

	property := &models.Property{
		PropertyID: input.PropertyID,
		Name:       input.Name,
		Tier:       input.Tier,
		IsActive:   true,
		BaseRates:  input.BaseRates,
	}
	if err := h.properties.Create(c.Request.Context(), property); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create property", err.Error())
		return
	}
	c.JSON(http.StatusCreated, property)
}

// GetProperty handles GET /api/admin/properties/:propertyID.
func (h *AdminHandler) GetProperty(c *gin.Context) {
	property, err := h.properties.GetByID(c.Request.Context(), c.Param("propertyID"))
	if err == propertyRepo.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch property", err.Error())
		return
	}
	c.JSON(http.StatusOK, property)
}

// PauseProperty handles POST /api/admin/properties/:propertyID/pause.
func (h *AdminHandler) PauseProperty(c *gin.Context) {
	h.setActive(c, false)
}

// ResumeProperty handles POST /api/admin/properties/:propertyID/resume.
func (h *AdminHandler) ResumeProperty(c *gin.Context) {
	h.setActive(c, true)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	propertyID := c.Param("propertyID")
	err := h.properties.SetActive(c.Request.Context(), propertyID, active)
	if err == propertyRepo.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to update property", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "is_active": active})
}
