package transactionRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayloom/database"
	"stayloom/models"
)

// MongoTransactionRepo is the MongoDB implementation of TransactionRepository.
// The idempotency key is the document _id, so the insert in Claim is the
// atomic insert-if-absent the concurrency model relies on.
type MongoTransactionRepo struct {
	coll *mongo.Collection
}

// NewMongoTransactionRepo creates a repository backed by the "transactions" collection.
func NewMongoTransactionRepo() *MongoTransactionRepo {
	return &MongoTransactionRepo{coll: database.DB().Collection("transactions")}
}

func (r *MongoTransactionRepo) Claim(ctx context.Context, candidate *models.Transaction) (*models.Transaction, ClaimOutcome, error) {
	now := time.Now()
	candidate.Status = models.TxPending
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, candidate)
	if err == nil {
		return candidate, ClaimAcquired, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, 0, fmt.Errorf("failed to claim idempotency key %s: %w", candidate.IdempotencyKey, err)
	}

	// The key exists. Try to take over a FAILED record; otherwise report
	// the existing claim. Two passes cover the race where the FAILED
	// record is reclaimed by a concurrent caller between our reads.
	for i := 0; i < 2; i++ {
		existing, err := r.GetByKey(ctx, candidate.IdempotencyKey)
		if err != nil {
			return nil, 0, err
		}
		switch existing.Status {
		case models.TxCommitted:
			return existing, ClaimCommitted, nil
		case models.TxPending:
			return existing, ClaimPending, nil
		}
		if existing.PayloadHash != candidate.PayloadHash {
			// The key is taken by a FAILED booking with another payload;
			// reclaiming it would silently overwrite that intent.
			return existing, ClaimRefused, nil
		}

		// FAILED with the same payload: a retry may reclaim the key with a
		// fresh transaction ID. The payload_hash filter keeps the takeover
		// atomic against a concurrent reclaim with a different payload.
		update := bson.M{"$set": bson.M{
			"status":         models.TxPending,
			"transaction_id": candidate.TransactionID,
			"session_id":     candidate.SessionID,
			"amount":         candidate.Amount,
			"failure_reason": "",
			"updated_at":     time.Now(),
		}}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var reclaimed models.Transaction
		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": candidate.IdempotencyKey, "status": models.TxFailed, "payload_hash": candidate.PayloadHash},
			update, opts).Decode(&reclaimed)
		if err == nil {
			return &reclaimed, ClaimAcquired, nil
		}
		if err != mongo.ErrNoDocuments {
			return nil, 0, fmt.Errorf("failed to reclaim idempotency key %s: %w", candidate.IdempotencyKey, err)
		}
		// Lost the reclaim race; re-read and classify again.
	}
	return nil, 0, fmt.Errorf("could not settle claim for idempotency key %s", candidate.IdempotencyKey)
}

func (r *MongoTransactionRepo) MarkCommitted(ctx context.Context, idempotencyKey, confirmationID string) (*models.Transaction, error) {
	update := bson.M{"$set": bson.M{
		"status":          models.TxCommitted,
		"confirmation_id": confirmationID,
		"updated_at":      time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var tx models.Transaction
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": idempotencyKey, "status": models.TxPending},
		update, opts).Decode(&tx)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction for key %s: %w", idempotencyKey, err)
	}
	return &tx, nil
}

func (r *MongoTransactionRepo) MarkFailed(ctx context.Context, idempotencyKey, reason string) error {
	update := bson.M{"$set": bson.M{
		"status":         models.TxFailed,
		"failure_reason": reason,
		"updated_at":     time.Now(),
	}}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": idempotencyKey, "status": models.TxPending}, update)
	if err != nil {
		return fmt.Errorf("failed to mark transaction failed for key %s: %w", idempotencyKey, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTransactionRepo) GetByKey(ctx context.Context, idempotencyKey string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.coll.FindOne(ctx, bson.M{"_id": idempotencyKey}).Decode(&tx)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction for key %s: %w", idempotencyKey, err)
	}
	return &tx, nil
}
