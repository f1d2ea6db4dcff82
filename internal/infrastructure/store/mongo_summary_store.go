package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/mixbox-shop/internal/readmodel"
)

// MongoSummaryStore implements SummaryStore using MongoDB
type MongoSummaryStore struct {
	coll *mongo.Collection
}

func NewMongoSummaryStore(db *mongo.Database) *MongoSummaryStore {
	return &MongoSummaryStore{coll: db.Collection(CollectionSummaries)}
}

func (rs *MongoSummaryStore) Get(ctx context.Context, sessionID string) (*readmodel.BasketSummary, bool, error) {
	var s readmodel.BasketSummary
	err := rs.coll.FindOne(ctx, bson.D{{Key: "_id", Value: sessionID}}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get summary: %w", err)
	}
	return &s, true, nil
}

// Upsert writes s unless a document with a newer version is already stored.
func (rs *MongoSummaryStore) Upsert(ctx context.Context, s *readmodel.BasketSummary) error {
	filter := bson.D{
		{Key: "_id", Value: s.SessionID},
		{Key: "version", Value: bson.D{{Key: "$lt", Value: s.Version}}},
	}
	_, err := rs.coll.ReplaceOne(ctx, filter, s, options.Replace().SetUpsert(true))
	// A newer document makes the filter miss and the upsert collide on _id.
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (rs *MongoSummaryStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := rs.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: sessionID}}); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}
