package routes

import (
	"github.com/gin-gonic/gin"

	"stayloom/handlers"
	"stayloom/middleware"
	"stayloom/services/audit"
)

// HandlerBundle gathers the handlers the router wires up.
type HandlerBundle struct {
	Gateway *handlers.GatewayHandler
	Agent   *handlers.AgentHandler
	Admin   *handlers.AdminHandler
	Ledger  *handlers.LedgerHandler

	// Audit receives records for submissions the middleware rejects
	// before they reach the gateway dispatcher.
	Audit audit.Recorder

	RateLimitPerMin int
}

// RegisterRoutes registers all endpoints with the assembled handler bundle.
func RegisterRoutes(r *gin.Engine, b *HandlerBundle) {
	r.GET("/health", handlers.HealthHandler)

	// Token issuance authenticates with the agent secret, not a JWT.
	r.POST("/api/agents/token", b.Agent.IssueToken)

	// The ACP submission surface: agent JWT plus per-agent rate limit.
	acp := r.Group("/api/acp")
	acp.Use(middleware.AgentAuthMiddleware(b.Audit))
	acp.Use(middleware.AgentRateLimitMiddleware(b.RateLimitPerMin, b.Audit))
	{
		acp.POST("/submit", b.Gateway.SubmitIntent)
	}

	// Admin surface: onboarding, property control, ledger export.
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.POST("/agents", b.Agent.RegisterAgent)
		admin.POST("/properties", b.Admin.CreateProperty)
		admin.GET("/properties/:propertyID", b.Admin.GetProperty)
		admin.POST("/properties/:propertyID/pause", b.Admin.PauseProperty)
		admin.POST("/properties/:propertyID/resume", b.Admin.ResumeProperty)
	}

	ledger := r.Group("/api/ledger")
	ledger.Use(middleware.AdminAuthMiddleware())
	{
		ledger.GET("/:propertyID", b.Ledger.ExportEntries)
		ledger.GET("/:propertyID/aggregate", b.Ledger.GetAggregate)
		ledger.GET("/:propertyID/verify", b.Ledger.VerifyLedger)
	}
}
