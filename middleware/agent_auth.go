package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stayloom/models"
	"stayloom/services/audit"
	"stayloom/utils"
)

// AgentIDKey is the gin context key holding the authenticated agent ID.
const AgentIDKey = "agentID"

// AgentAuthMiddleware validates the agent's bearer token and stores the
// agent ID on the request context. Rejections are recorded on the intent
// audit trail when a recorder is wired.
func AgentAuthMiddleware(recorder audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			auditRejection(c, recorder, "", "unauthenticated")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": models.StatusRejected,
				"error":  "Insufficient authorization",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		agentID, err := utils.ExtractAgentIDFromToken(tokenString)
		if err != nil {
			auditRejection(c, recorder, "", "invalid_token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": models.StatusRejected,
				"error":  "Invalid or expired token",
			})
			return
		}

		c.Set(AgentIDKey, agentID)
		c.Next()
	}
}

// auditRejection records a submission the middleware refused before it
// could reach the gateway dispatcher.
func auditRejection(c *gin.Context, recorder audit.Recorder, agentID, reason string) {
	if recorder == nil {
		return
	}
	recorder.Record(c.Request.Context(), models.IntentAudit{
		AgentID: agentID,
		Outcome: models.StatusRejected,
		Reason:  reason,
	})
}
