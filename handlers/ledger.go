package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stayloom/services/ledger"
	"stayloom/utils"
)

// LedgerHandler exposes the read-only commission ledger export used by the
// external reconciliation tool.
type LedgerHandler struct {
	service ledger.Service
}

// NewLedgerHandler creates the handler.
func NewLedgerHandler(service ledger.Service) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// ExportEntries handles GET /api/ledger/:propertyID?from=&to=.
func (h *LedgerHandler) ExportEntries(c *gin.Context) {
	propertyID := c.Param("propertyID")

	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}

	entries, err := h.service.Export(c.Request.Context(), propertyID, from, to)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to export ledger", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": propertyID, "entries": entries})
}

// GetAggregate handles GET /api/ledger/:propertyID/aggregate.
func (h *LedgerHandler) GetAggregate(c *gin.Context) {
	total, err := h.service.Aggregate(c.Request.Context(), c.Param("propertyID"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch aggregate", err.Error())
		return
	}
	c.JSON(http.StatusOK, total)
}

// VerifyLedger handles GET /api/ledger/:propertyID/verify.
func (h *LedgerHandler) VerifyLedger(c *gin.Context) {
	if err := h.service.Verify(c.Request.Context(), c.Param("propertyID")); err != nil {
		utils.JSONAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"property_id": c.Param("propertyID"), "consistent": true})
}

func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return parsed, true
}
