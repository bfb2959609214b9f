package auditRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"stayloom/database"
	"stayloom/models"
)

// AuditRepository appends intent audit records; the collection is never
// updated or deleted from by the application.
type AuditRepository interface {
	Append(ctx context.Context, record *models.IntentAudit) error
}

// MongoAuditRepo is the MongoDB implementation of AuditRepository.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

// NewMongoAuditRepo creates a repository backed by the "intent_audit" collection.
func NewMongoAuditRepo() *MongoAuditRepo {
	return &MongoAuditRepo{coll: database.DB().Collection("intent_audit")}
}

func (r *MongoAuditRepo) Append(ctx context.Context, record *models.IntentAudit) error {
	if _, err := r.coll.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to append intent audit record: %w", err)
	}
	return nil
}
