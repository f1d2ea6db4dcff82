package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names used by the Mongo stores.
const (
	CollectionSessions  = "sessions"
	CollectionPackages  = "packages"
	CollectionDrinks    = "drinks"
	CollectionSummaries = "basket_summaries"
)

// MongoTimeout bounds store calls made outside a request.
const MongoTimeout = 10 * time.Second

// DefaultTimer returns a context bounded by MongoTimeout.
func DefaultTimer() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), MongoTimeout)
}

// ConnectMongo opens a client using the stable server API and pings it.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type indexConfig struct {
	collection string
	model      mongo.IndexModel
}

var requiredIndexes = []indexConfig{
	{
		collection: CollectionSessions,
		model: mongo.IndexModel{
			Keys:    bson.D{{Key: "updatedAt", Value: 1}},
			Options: options.Index().SetName("idx_sessions_updated_at"),
		},
	},
	{
		collection: CollectionPackages,
		model: mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_package_slug_unique"),
		},
	},
	{
		collection: CollectionDrinks,
		model: mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_drink_slug_unique"),
		},
	},
}

// EnsureMongoIndexes creates the indexes the Mongo stores rely on.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range requiredIndexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
