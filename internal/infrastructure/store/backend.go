package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/session"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Catalog is a catalog repository that also accepts seed data.
type Catalog interface {
	catalog.Repository
	CatalogWriter
}

// BackendConfig selects and locates the backing store.
type BackendConfig struct {
	Driver        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
}

// Backend bundles the stores of one driver.
type Backend struct {
	Sessions  session.Store
	Catalog   Catalog
	Summaries SummaryStore

	close func(context.Context) error
}

// OpenBackend connects to the configured driver and prepares its schema or indexes.
func OpenBackend(ctx context.Context, cfg BackendConfig) (*Backend, error) {
	switch cfg.Driver {
	case DriverPostgres:
		db, err := ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := MigratePostgres(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return newPostgresBackend(db), nil

	case DriverMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return newMongoBackend(client, db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func newPostgresBackend(db *sql.DB) *Backend {
	return &Backend{
		Sessions:  NewPostgresSessionStore(db),
		Catalog:   NewPostgresCatalog(db),
		Summaries: NewPostgresSummaryStore(db),
		close:     func(context.Context) error { return db.Close() },
	}
}

func newMongoBackend(client *mongo.Client, db *mongo.Database) *Backend {
	return &Backend{
		Sessions:  NewMongoSessionStore(db),
		Catalog:   NewMongoCatalog(db),
		Summaries: NewMongoSummaryStore(db),
		close:     client.Disconnect,
	}
}

func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}
