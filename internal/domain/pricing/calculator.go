// Package pricing computes per-package prices for a drink selection.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

var (
	ErrQuantityMismatch = errors.New("quantity mismatch")
	ErrInvalidSize      = errors.New("invalid size")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

// Quote is the priced result for one package. All values are minor units.
type Quote struct {
	PricePerPackage        int `json:"pricePerPackage"`
	RecyclingFeePerPackage int `json:"recyclingFeePerPackage"`
	OriginalTotalPrice     int `json:"originalTotalPrice"`
}

// Calculate prices a selection of drinks for pkg at the given size.
//
// The discounted total is rounded up to the size option's granularity, so the
// seller never rounds in the buyer's favour. Recycling fees pass through as-is.
func Calculate(pkg *catalog.Package, size int, products map[string]int, drinks map[string]catalog.Drink) (Quote, error) {
	var original, recycling, total int64

	for slug, qty := range products {
		if qty == 0 {
			continue
		}
		if qty < 0 {
			return Quote{}, fmt.Errorf("%w: %s has %d", ErrInvalidQuantity, slug, qty)
		}
		drink, ok := drinks[slug]
		if !ok {
			return Quote{}, fmt.Errorf("%w: %s", catalog.ErrDrinkNotFound, slug)
		}
		original += int64(drink.SalePrice) * int64(qty)
		recycling += int64(drink.RecyclingFee) * int64(qty)
		total += int64(qty)
	}

	if total != int64(size) {
		return Quote{}, fmt.Errorf("%w: selected %d drinks for size %d", ErrQuantityMismatch, total, size)
	}

	option, ok := pkg.SizeOption(size)
	if !ok {
		return Quote{}, fmt.Errorf("%w: %d is not offered for %s", ErrInvalidSize, size, pkg.Slug)
	}

	return Quote{
		PricePerPackage:        RoundUp(original, option.DiscountMultiplier(), option.RoundingGranularity()),
		RecyclingFeePerPackage: int(recycling),
		OriginalTotalPrice:     int(original),
	}, nil
}

// RoundUp applies discount to amount and rounds the result up to the next
// multiple of granularity major units (granularity × 100 minor units).
func RoundUp(amount int64, discount float64, granularity int) int {
	step := decimal.NewFromInt(int64(granularity) * 100)
	discounted := decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(discount))
	return int(discounted.Div(step).Ceil().Mul(step).IntPart())
}

// Normalize drops zero-quantity entries so equal selections compare equal.
func Normalize(products map[string]int) map[string]int {
	out := make(map[string]int, len(products))
	for slug, qty := range products {
		if qty != 0 {
			out[slug] = qty
		}
	}
	return out
}
