package ledgerRepo

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

// MongoLedgerRepo is the MongoDB implementation of LedgerRepository.
type MongoLedgerRepo struct {
	entries *mongo.Collection
	totals  *mongo.Collection
}

// NewMongoLedgerRepo creates a repository over the "commission_entries" and
// "commission_totals" collections.
func NewMongoLedgerRepo() *MongoLedgerRepo {
	db := database.DB()
	repo := &MongoLedgerRepo{
		entries: db.Collection("commission_entries"),
		totals:  db.Collection("commission_totals"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// One entry per transaction, enforced at the storage layer as a
	// backstop behind the transaction manager's idempotency guarantee.
	_, err := repo.entries.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "transaction_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to ensure ledger index: %v", err))
	}

	return repo
}

// AppendEntry inserts the entry and bumps the property's running aggregate
// inside one multi-document transaction.
func (r *MongoLedgerRepo) AppendEntry(ctx context.Context, entry *models.CommissionEntry) error {
	entry.CreatedAt = time.Now()

	client := r.entries.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		if _, err := r.entries.InsertOne(sc, entry); err != nil {
			return fmt.Errorf("insert commission entry failed: %w", err)
		}

		filter := bson.M{"_id": entry.PropertyID}
		update := bson.M{
			"$inc": bson.M{"total": entry.CommissionAmount, "entry_count": 1},
			"$set": bson.M{"updated_at": time.Now()},
		}
		opts := options.Update().SetUpsert(true)
		if _, err := r.totals.UpdateOne(sc, filter, update, opts); err != nil {
			return fmt.Errorf("update running aggregate failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return fmt.Errorf("ledger append transaction failed: %w", err)
	}

	return nil
}

func (r *MongoLedgerRepo) Aggregate(ctx context.Context, propertyID string) (*models.CommissionTotal, error) {
	var total models.CommissionTotal
	err := r.totals.FindOne(ctx, bson.M{"_id": propertyID}).Decode(&total)
	if err == mongo.ErrNoDocuments {
		return &models.CommissionTotal{PropertyID: propertyID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch aggregate for property %s: %w", propertyID, err)
	}
	return &total, nil
}

func (r *MongoLedgerRepo) SumEntries(ctx context.Context, propertyID string) (float64, int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"property_id": propertyID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$commission_amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.entries.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum entries for property %s: %w", propertyID, err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
		Count int64   `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, fmt.Errorf("failed to decode entry sum: %w", err)
		}
	}
	return result.Total, result.Count, nil
}

func (r *MongoLedgerRepo) Query(ctx context.Context, propertyID string, from, to time.Time) ([]models.CommissionEntry, error) {
	filter := bson.M{"property_id": propertyID}
	if !from.IsZero() || !to.IsZero() {
		window := bson.M{}
		if !from.IsZero() {
			window["$gte"] = from
		}
		if !to.IsZero() {
			window["$lt"] = to
		}
		filter["created_at"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger for property %s: %w", propertyID, err)
	}
	defer cursor.Close(ctx)

	var entries []models.CommissionEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entries: %w", err)
	}
	return entries, nil
}
