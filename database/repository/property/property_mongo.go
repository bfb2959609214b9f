package propertyRepo

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

// MongoPropertyRepo is the MongoDB implementation of PropertyRepository.
type MongoPropertyRepo struct {
	coll *mongo.Collection
}

// NewMongoPropertyRepo creates a repository backed by the "properties" collection.
func NewMongoPropertyRepo() *MongoPropertyRepo {
	coll := database.DB().Collection("properties")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "property_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to ensure property index: %v", err))
	}

	return &MongoPropertyRepo{coll: coll}
}

func (r *MongoPropertyRepo) GetByID(ctx context.Context, propertyID string) (*models.Property, error) {
	var property models.Property
	err := r.coll.FindOne(ctx, bson.M{"property_id": propertyID}).Decode(&property)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch property %s: %w", propertyID, err)
	}
	return &property, nil
}

func (r *MongoPropertyRepo) Create(ctx context.Context, property *models.Property) error {
	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, property)
	if err != nil {
		return fmt.Errorf("failed to create property %s: %w", property.PropertyID, err)
	}
	return nil
}

func (r *MongoPropertyRepo) SetActive(ctx context.Context, propertyID string, active bool) error {
	update := bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"property_id": propertyID}, update)
	if err != nil {
		return fmt.Errorf("failed to update property %s: %w", propertyID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
