package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

// PostgresCatalog reads packages and drinks from PostgreSQL.
type PostgresCatalog struct {
	db *sql.DB
}

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const packageColumns = `slug, title, description, image, sizes, drinks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(row rowScanner) (*catalog.Package, error) {
	var (
		p     catalog.Package
		sizes []byte
	)
	if err := row.Scan(&p.Slug, &p.Title, &p.Description, &p.Image, &sizes, pq.Array(&p.Drinks)); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
		return nil, fmt.Errorf("decode sizes of %s: %w", p.Slug, err)
	}
	return &p, nil
}

func (c *PostgresCatalog) GetPackage(ctx context.Context, slug string) (*catalog.Package, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+packageColumns+` FROM packages WHERE slug = $1`, slug)
	p, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrPackageNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return p, nil
}

func (c *PostgresCatalog) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var packages []catalog.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

const drinkColumns = `slug, title, sale_price, recycling_fee, sugar_free, size`

func scanDrink(row rowScanner) (catalog.Drink, error) {
	var d catalog.Drink
	err := row.Scan(&d.Slug, &d.Title, &d.SalePrice, &d.RecyclingFee, &d.SugarFree, &d.Size)
	return d, err
}

func (c *PostgresCatalog) GetDrinks(ctx context.Context, slugs []string) (map[string]catalog.Drink, error) {
	out := make(map[string]catalog.Drink, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	rows, err := c.db.QueryContext(ctx, `SELECT `+drinkColumns+` FROM drinks WHERE slug = ANY($1)`, pq.Array(slugs))
	if err != nil {
		return nil, fmt.Errorf("get drinks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		out[d.Slug] = d
	}
	return out, rows.Err()
}

func (c *PostgresCatalog) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+drinkColumns+` FROM drinks ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	defer rows.Close()

	var drinks []catalog.Drink
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, err
		}
		drinks = append(drinks, d)
	}
	return drinks, rows.Err()
}

// UpsertPackage inserts or replaces a package.
func (c *PostgresCatalog) UpsertPackage(ctx context.Context, p catalog.Package) error {
	sizes, err := json.Marshal(p.Sizes)
	if err != nil {
		return err
	}
	drinks := p.Drinks
	if drinks == nil {
		drinks = []string{}
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			sizes = EXCLUDED.sizes,
			drinks = EXCLUDED.drinks
	`, p.Slug, p.Title, p.Description, p.Image, sizes, pq.Array(drinks))
	if err != nil {
		return fmt.Errorf("upsert package %s: %w", p.Slug, err)
	}
	return nil
}

// UpsertDrink inserts or replaces a drink.
func (c *PostgresCatalog) UpsertDrink(ctx context.Context, d catalog.Drink) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO drinks (`+drinkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			sale_price = EXCLUDED.sale_price,
			recycling_fee = EXCLUDED.recycling_fee,
			sugar_free = EXCLUDED.sugar_free,
			size = EXCLUDED.size
	`, d.Slug, d.Title, d.SalePrice, d.RecyclingFee, d.SugarFree, d.Size)
	if err != nil {
		return fmt.Errorf("upsert drink %s: %w", d.Slug, err)
	}
	return nil
}
