package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"stayloom/models"
)

type recordingAudit struct {
	records []models.IntentAudit
}

func (r *recordingAudit) Record(ctx context.Context, record models.IntentAudit) {
	r.records = append(r.records, record)
}

func newLimitedRouter(perMinute int, agentID string, auditRec *recordingAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if agentID != "" {
			c.Set(AgentIDKey, agentID)
		}
		c.Next()
	})
	router.Use(AgentRateLimitMiddleware(perMinute, auditRec))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func ping(router *gin.Engine) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	router := newLimitedRouter(5, "agent_1", &recordingAudit{})
	for i := 0; i < 5; i++ {
		if code := ping(router); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	auditRec := &recordingAudit{}
	router := newLimitedRouter(3, "agent_1", auditRec)
	for i := 0; i < 3; i++ {
		if code := ping(router); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	if code := ping(router); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over budget, got %d", code)
	}
	if len(auditRec.records) != 1 {
		t.Fatalf("expected the rejected submission on the audit trail, got %d records", len(auditRec.records))
	}
	record := auditRec.records[0]
	if record.AgentID != "agent_1" || record.Outcome != models.StatusRejected || record.Reason != "rate_limited" {
		t.Fatalf("unexpected audit record: %+v", record)
	}
}

func TestRateLimitIsPerAgent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(AgentIDKey, c.GetHeader("X-Agent"))
		c.Next()
	})
	router.Use(AgentRateLimitMiddleware(1, &recordingAudit{}))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	pingAs := func(agent string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Agent", agent)
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := pingAs("agent_1"); code != http.StatusOK {
		t.Fatalf("agent_1 first request: expected 200, got %d", code)
	}
	if code := pingAs("agent_1"); code != http.StatusTooManyRequests {
		t.Fatalf("agent_1 second request: expected 429, got %d", code)
	}
	// A different agent has its own budget.
	if code := pingAs("agent_2"); code != http.StatusOK {
		t.Fatalf("agent_2 first request: expected 200, got %d", code)
	}
}

func TestRateLimitRequiresAuthentication(t *testing.T) {
	auditRec := &recordingAudit{}
	router := newLimitedRouter(5, "", auditRec)
	if code := ping(router); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without agent context, got %d", code)
	}
	if len(auditRec.records) != 1 || auditRec.records[0].Reason != "unauthenticated" {
		t.Fatalf("expected unauthenticated rejection on the audit trail, got %+v", auditRec.records)
	}
}

func TestAgentAuthRejectionIsAudited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auditRec := &recordingAudit{}
	router := gin.New()
	router.Use(AgentAuthMiddleware(auditRec))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", w.Code)
	}
	if len(auditRec.records) != 1 {
		t.Fatalf("expected the rejection on the audit trail, got %d records", len(auditRec.records))
	}
	record := auditRec.records[0]
	if record.Outcome != models.StatusRejected || record.Reason != "unauthenticated" {
		t.Fatalf("unexpected audit record: %+v", record)
	}
}
