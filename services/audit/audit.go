package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	auditRepo "stayloom/database/repository/audit"
	"stayloom/models"
)

// Recorder appends intent audit records. Recording is best-effort: a
// failed append is logged, never surfaced to the agent.
type Recorder interface {
	Record(ctx context.Context, record models.IntentAudit)
}

// DefaultRecorder writes every intent to the audit collection, mirrors it
// to the audit log, and fans it out to RabbitMQ when a publisher is wired.
type DefaultRecorder struct {
	Repo      auditRepo.AuditRepository
	Publisher *Publisher
	Logger    *zap.Logger
}

func (r *DefaultRecorder) Record(ctx context.Context, record models.IntentAudit) {
	if record.At.IsZero() {
		record.At = time.Now()
	}

	r.Logger.Info("intent",
		zap.String("agentID", record.AgentID),
		zap.String("intentType", record.IntentType),
		zap.String("propertyID", record.PropertyID),
		zap.String("requestID", record.RequestID),
		zap.String("outcome", record.Outcome))

	if err := r.Repo.Append(ctx, &record); err != nil {
		r.Logger.Error("audit append failed", zap.Error(err))
	}
	if r.Publisher != nil {
		if err := r.Publisher.Publish(record); err != nil {
			r.Logger.Warn("audit publish failed", zap.Error(err))
		}
	}
}
