package agentRepo

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

// MongoAgentRepo is the MongoDB implementation of AgentRepository.
type MongoAgentRepo struct {
	coll *mongo.Collection
}

// NewMongoAgentRepo creates a repository backed by the "agents" collection.
func NewMongoAgentRepo() *MongoAgentRepo {
	coll := database.DB().Collection("agents")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "agent_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to ensure agent index: %v", err))
	}

	return &MongoAgentRepo{coll: coll}
}

func (r *MongoAgentRepo) GetByID(ctx context.Context, agentID string) (*models.Agent, error) {
	var agent models.Agent
	err := r.coll.FindOne(ctx, bson.M{"agent_id": agentID}).Decode(&agent)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent %s: %w", agentID, err)
	}
	return &agent, nil
}

func (r *MongoAgentRepo) Create(ctx context.Context, agent *models.Agent) error {
	now := time.Now()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, agent)
	if err != nil {
		return fmt.Errorf("failed to create agent %s: %w", agent.AgentID, err)
	}
	return nil
}

// AdjustReputation applies the delta server-side with an aggregation
// pipeline update so concurrent adjustments never lose writes and the
// score stays inside [0, 1].
func (r *MongoAgentRepo) AdjustReputation(ctx context.Context, agentID string, delta float64) (float64, error) {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"reputation_score": bson.M{
				"$max": bson.A{0.0, bson.M{
					"$min": bson.A{1.0, bson.M{
						"$add": bson.A{"$reputation_score", delta},
					}},
				}},
			},
			"updated_at": time.Now(),
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var agent models.Agent
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"agent_id": agentID}, pipeline, opts).Decode(&agent)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust reputation for agent %s: %w", agentID, err)
	}
	return agent.ReputationScore, nil
}
