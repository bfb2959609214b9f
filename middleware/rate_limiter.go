package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"stayloom/models"
	"stayloom/services/audit"
)

// rateLimiterStore holds a map of agent IDs to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex

	perMinute int
}

func newRateLimiterStore(perMinute int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters:  make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

// getLimiter returns the rate limiter for a given agent, creating one if it
// doesn't exist. Token refill at requests-per-minute with a matching burst
// approximates the per-agent sliding window.
func (s *rateLimiterStore) getLimiter(agentID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[agentID]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute)
		s.limiters[agentID] = limiter
	}
	return limiter
}

// AgentRateLimitMiddleware limits requests per authenticated agent. It must
// run after the agent auth middleware. Rate-limited submissions still land
// on the intent audit trail when a recorder is wired.
func AgentRateLimitMiddleware(perMinute int, recorder audit.Recorder) gin.HandlerFunc {
	store := newRateLimiterStore(perMinute)
	return func(c *gin.Context) {
		logger := zap.L()
		agentID := c.GetString(AgentIDKey)
		if agentID == "" {
			auditRejection(c, recorder, "", "unauthenticated")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"kind": "Forbidden", "error": "unauthenticated"})
			return
		}
		limiter := store.getLimiter(agentID)
		if !limiter.Allow() {
			logger.Warn("Rate limit exceeded", zap.String("agentID", agentID))
			auditRejection(c, recorder, agentID, "rate_limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"kind":   "RateLimited",
				"status": models.StatusRejected,
				"error":  "Rate limit exceeded. Try again later.",
			})
			return
		}
		c.Next()
	}
}
