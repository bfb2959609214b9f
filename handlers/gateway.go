package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stayloom/middleware"
	"stayloom/models"
	"stayloom/services/gateway"
	"stayloom/utils"
)

// GatewayHandler exposes the single ACP submission endpoint.
type GatewayHandler struct {
	service gateway.Service
	logger  *zap.Logger
}

// NewGatewayHandler creates the handler.
func NewGatewayHandler(service gateway.Service, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{service: service, logger: logger}
}

// SubmitIntent handles POST /api/acp/submit.
func (h *GatewayHandler) SubmitIntent(c *gin.Context) {
	var intent models.Intent
	if err := c.ShouldBindJSON(&intent); err != nil {
		utils.JSONAPIError(c, utils.WrapAPIError(utils.KindValidation, err, "malformed intent"))
		return
	}

	agentID := c.GetString(middleware.AgentIDKey)
	resp, err := h.service.Submit(c.Request.Context(), agentID, intent)
	if err != nil {
		utils.JSONAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
