package catalog

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrDrinkNotFound   = errors.New("drink not found")
)

const (
	// DefaultDiscount is applied when a size option carries no multiplier.
	DefaultDiscount = 1.0
	// DefaultRounding is the granularity in major currency units used when unset.
	DefaultRounding = 5
)

// SizeOption is one purchasable size of a package.
type SizeOption struct {
	Size          int     `json:"size" bson:"size"`
	Discount      float64 `json:"discount,omitempty" bson:"discount,omitempty"`
	RoundUpOrDown int     `json:"roundUpOrDown,omitempty" bson:"roundUpOrDown,omitempty"`
}

// DiscountMultiplier returns the configured multiplier or 1 when unset.
func (o SizeOption) DiscountMultiplier() float64 {
	if o.Discount <= 0 {
		return DefaultDiscount
	}
	return o.Discount
}

// RoundingGranularity returns the rounding step in major units, defaulting to 5.
func (o SizeOption) RoundingGranularity() int {
	if o.RoundUpOrDown <= 0 {
		return DefaultRounding
	}
	return o.RoundUpOrDown
}

// Package is a "mix box" product definition.
type Package struct {
	Slug        string       `json:"slug" bson:"slug"`
	Title       string       `json:"title" bson:"title"`
	Description string       `json:"description,omitempty" bson:"description,omitempty"`
	Image       string       `json:"image,omitempty" bson:"image,omitempty"`
	Sizes       []SizeOption `json:"sizes" bson:"sizes"`
	// Drinks lists the slugs random selections draw from. Empty means every drink.
	Drinks []string `json:"drinks,omitempty" bson:"drinks,omitempty"`
}

// SizeOption finds the option for size.
func (p *Package) SizeOption(size int) (SizeOption, bool) {
	for _, o := range p.Sizes {
		if o.Size == size {
			return o, true
		}
	}
	return SizeOption{}, false
}

// Drink is a single catalog beverage. Prices are in minor currency units.
type Drink struct {
	Slug         string `json:"slug" bson:"slug"`
	Title        string `json:"title" bson:"title"`
	SalePrice    int    `json:"salePrice" bson:"salePrice"`
	RecyclingFee int    `json:"recyclingFee" bson:"recyclingFee"`
	SugarFree    bool   `json:"sugarFree" bson:"sugarFree"`
	Size         string `json:"size" bson:"size"`
}

// Repository is the read-only catalog contract.
type Repository interface {
	GetPackage(ctx context.Context, slug string) (*Package, error)
	ListPackages(ctx context.Context) ([]Package, error)
	// GetDrinks returns the drinks found for slugs. Missing slugs are absent from the map.
	GetDrinks(ctx context.Context, slugs []string) (map[string]Drink, error)
	ListDrinks(ctx context.Context) ([]Drink, error)
}

// CandidatePool resolves the drinks a random selection for pkg may draw from.
func CandidatePool(ctx context.Context, repo Repository, pkg *Package) ([]Drink, error) {
	if len(pkg.Drinks) == 0 {
		return repo.ListDrinks(ctx)
	}
	found, err := repo.GetDrinks(ctx, pkg.Drinks)
	if err != nil {
		return nil, err
	}
	pool := make([]Drink, 0, len(found))
	for _, d := range found {
		pool = append(pool, d)
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].Slug < pool[j].Slug })
	return pool, nil
}
