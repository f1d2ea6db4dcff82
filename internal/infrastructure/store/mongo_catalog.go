package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

// MongoCatalog reads packages and drinks from MongoDB.
type MongoCatalog struct {
	packages *mongo.Collection
	drinks   *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{
		packages: db.Collection(CollectionPackages),
		drinks:   db.Collection(CollectionDrinks),
	}
}

func bySlug() *options.FindOptionsBuilder {
	return options.Find().SetSort(bson.D{{Key: "slug", Value: 1}})
}

func (c *MongoCatalog) GetPackage(ctx context.Context, slug string) (*catalog.Package, error) {
	var p catalog.Package
	err := c.packages.FindOne(ctx, bson.D{{Key: "slug", Value: slug}}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrPackageNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &p, nil
}

func (c *MongoCatalog) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	cursor, err := c.packages.Find(ctx, bson.D{}, bySlug())
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	var out []catalog.Package
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return out, nil
}

func (c *MongoCatalog) GetDrinks(ctx context.Context, slugs []string) (map[string]catalog.Drink, error) {
	out := make(map[string]catalog.Drink, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	cursor, err := c.drinks.Find(ctx, bson.D{{Key: "slug", Value: bson.D{{Key: "$in", Value: slugs}}}})
	if err != nil {
		return nil, fmt.Errorf("get drinks: %w", err)
	}
	var found []catalog.Drink
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("get drinks: %w", err)
	}
	for _, d := range found {
		out[d.Slug] = d
	}
	return out, nil
}

func (c *MongoCatalog) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	cursor, err := c.drinks.Find(ctx, bson.D{}, bySlug())
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	var out []catalog.Drink
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	return out, nil
}

func (c *MongoCatalog) UpsertPackage(ctx context.Context, p catalog.Package) error {
	_, err := c.packages.ReplaceOne(ctx, bson.D{{Key: "slug", Value: p.Slug}}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert package %s: %w", p.Slug, err)
	}
	return nil
}

func (c *MongoCatalog) UpsertDrink(ctx context.Context, d catalog.Drink) error {
	_, err := c.drinks.ReplaceOne(ctx, bson.D{{Key: "slug", Value: d.Slug}}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert drink %s: %w", d.Slug, err)
	}
	return nil
}
