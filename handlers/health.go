package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stayloom/database"
	"stayloom/utils"
)

// HealthHandler handles GET /health: a liveness probe over Mongo and Redis.
func HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"status": "ok"}
	code := http.StatusOK

	if err := database.MongoClient.Ping(ctx, nil); err != nil {
		status["status"] = "degraded"
		status["mongo"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := utils.GetCacheClient().Ping(ctx).Err(); err != nil {
		status["status"] = "degraded"
		status["redis"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, status)
}
