package sessionRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stayloom/database"
	"stayloom/models"
)

// MongoSessionArchive keeps terminal sessions in the
// "negotiation_archive" collection.
type MongoSessionArchive struct {
	coll *mongo.Collection
}

// NewMongoSessionArchive creates the archive over the application database.
func NewMongoSessionArchive() *MongoSessionArchive {
	return &MongoSessionArchive{coll: database.DB().Collection("negotiation_archive")}
}

// Archive upserts by session ID; re-archiving after a sweep/terminal race
// is harmless.
func (a *MongoSessionArchive) Archive(ctx context.Context, session *models.NegotiationSession) error {
	filter := bson.M{"session_id": session.SessionID}
	update := bson.M{"$set": session}
	opts := options.Update().SetUpsert(true)
	if _, err := a.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to archive session %s: %w", session.SessionID, err)
	}
	return nil
}

func (a *MongoSessionArchive) Lookup(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	var session models.NegotiationSession
	err := a.coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up archived session %s: %w", sessionID, err)
	}
	return &session, nil
}
