// Package delivery estimates basket weight and looks up shipping fees.
package delivery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

var ErrUnknownDeliveryType = errors.New("unknown delivery type")

// Type is the delivery method.
type Type string

const (
	PickupPoint  Type = "pickupPoint"
	HomeDelivery Type = "homeDelivery"
)

// DefaultVolumeML is assumed for drinks whose size descriptor cannot be parsed.
const DefaultVolumeML = 500

// Bracket is one row of a fee table. MaxWeightGrams is inclusive.
type Bracket struct {
	MaxWeightGrams int `json:"maxWeightGrams" mapstructure:"maxWeightGrams"`
	Fee            int `json:"fee" mapstructure:"fee"`
}

// Table holds the ascending bracket list for each delivery type.
type Table map[Type][]Bracket

// DefaultTable is used when no override is configured.
func DefaultTable() Table {
	return Table{
		PickupPoint: {
			{MaxWeightGrams: 5000, Fee: 4900},
			{MaxWeightGrams: 10000, Fee: 5900},
			{MaxWeightGrams: 15000, Fee: 6900},
			{MaxWeightGrams: 20000, Fee: 7900},
			{MaxWeightGrams: 35000, Fee: 9900},
		},
		HomeDelivery: {
			{MaxWeightGrams: 5000, Fee: 6900},
			{MaxWeightGrams: 10000, Fee: 7900},
			{MaxWeightGrams: 15000, Fee: 8900},
			{MaxWeightGrams: 20000, Fee: 9900},
			{MaxWeightGrams: 35000, Fee: 12900},
		},
	}
}

// Calculator computes fees from a bracket table.
type Calculator struct {
	table Table
}

func NewCalculator(table Table) *Calculator {
	if len(table) == 0 {
		table = DefaultTable()
	}
	return &Calculator{table: table}
}

// Supports reports whether t has a bracket table.
func (c *Calculator) Supports(t Type) bool {
	return len(c.table[t]) > 0
}

// Fee returns the fee for weightGrams. Baskets heavier than every bracket pay
// the last bracket's fee.
func (c *Calculator) Fee(t Type, weightGrams int) (int, error) {
	brackets := c.table[t]
	if len(brackets) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDeliveryType, t)
	}
	for _, b := range brackets {
		if b.MaxWeightGrams >= weightGrams {
			return b.Fee, nil
		}
	}
	return brackets[len(brackets)-1].Fee, nil
}

// BasketFee estimates the weight of units and returns the fee for t.
func (c *Calculator) BasketFee(t Type, units map[string]int, drinks map[string]catalog.Drink) (int, error) {
	return c.Fee(t, Weight(units, drinks))
}

// Weight estimates grams for units (drink slug to count). Drinks missing from
// the lookup are weighed as the default volume.
func Weight(units map[string]int, drinks map[string]catalog.Drink) int {
	total := 0
	for slug, n := range units {
		if n <= 0 {
			continue
		}
		ml, ok := ParseVolumeML(drinks[slug].Size)
		if !ok {
			ml = DefaultVolumeML
		}
		total += n * UnitWeightGrams(ml)
	}
	return total
}

// UnitWeightGrams is the weight of one container of ml millilitres including packaging.
func UnitWeightGrams(ml int) int {
	switch ml {
	case 500:
		return ml + 20
	case 250:
		return ml + 15
	default:
		return ml + (40*ml+999)/1000
	}
}

var sizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:[.,]\d+)?)\s*(ml|cl|l|ltr|liter|litre)?\.?\s*$`)

// ParseVolumeML parses descriptors such as "0.5 L", "0,33l", "250 ml" or "33cl".
// A bare number is read as litres.
func ParseVolumeML(desc string) (int, bool) {
	m := sizePattern.FindStringSubmatch(desc)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return 0, false
	}

	var ml float64
	switch strings.ToLower(m[2]) {
	case "ml":
		ml = v
	case "cl":
		ml = v * 10
	default:
		ml = v * 1000
	}
	return int(ml + 0.5), true
}
