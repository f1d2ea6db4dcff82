// Package basket holds the basket model and the mutator that applies
// customer actions to it.
package basket

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/domain/selection"
)

// MaxQuantity caps the number of packages on one basket line.
const MaxQuantity = 999

var (
	ErrInvalidItemIndex = errors.New("invalid item index")
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 999")
	ErrMissingField     = errors.New("missing required field")
)

// Item is one basket line. Money values are minor units.
type Item struct {
	PackageSlug            string                    `json:"packageSlug" bson:"packageSlug"`
	PackageSize            int                       `json:"packageSize" bson:"packageSize"`
	SelectedProducts       map[string]int            `json:"selectedProducts" bson:"selectedProducts"`
	PricePerPackage        int                       `json:"pricePerPackage" bson:"pricePerPackage"`
	RecyclingFeePerPackage int                       `json:"recyclingFeePerPackage" bson:"recyclingFeePerPackage"`
	Quantity               int                       `json:"quantity" bson:"quantity"`
	TotalPrice             int                       `json:"totalPrice" bson:"totalPrice"`
	TotalRecyclingFee      int                       `json:"totalRecyclingFee" bson:"totalRecyclingFee"`
	SugarPreference        selection.SugarPreference `json:"sugarPreference,omitempty" bson:"sugarPreference,omitempty"`
	IsCustomSelection      bool                      `json:"isCustomSelection" bson:"isCustomSelection"`
	AddedAt                time.Time                 `json:"addedAt" bson:"addedAt"`
}

// SameLine reports whether other describes the same package, size and drink mapping.
func (i *Item) SameLine(other *Item) bool {
	return i.PackageSlug == other.PackageSlug &&
		i.PackageSize == other.PackageSize &&
		maps.Equal(i.SelectedProducts, other.SelectedProducts)
}

func validQuantity(q int) bool {
	return q > 0 && q <= MaxQuantity
}

func (i *Item) setQuantity(q int) {
	i.Quantity = q
	i.TotalPrice = i.PricePerPackage * q
	i.TotalRecyclingFee = i.RecyclingFeePerPackage * q
}

// DeliveryOption identifies the carrier and method.
type DeliveryOption struct {
	Provider     string        `json:"provider" bson:"provider"`
	DeliveryType delivery.Type `json:"deliveryType" bson:"deliveryType"`
}

// DeliveryDetails is the chosen delivery and its computed fee.
type DeliveryDetails struct {
	Provider        string         `json:"provider" bson:"provider"`
	DeliveryType    delivery.Type  `json:"deliveryType" bson:"deliveryType"`
	DeliveryFee     int            `json:"deliveryFee" bson:"deliveryFee"`
	Currency        string         `json:"currency" bson:"currency"`
	DeliveryAddress map[string]any `json:"deliveryAddress" bson:"deliveryAddress"`
	ProviderDetails map[string]any `json:"providerDetails" bson:"providerDetails"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
}

// Basket is the content of a session's basket.
type Basket struct {
	Items           []Item           `json:"items" bson:"items"`
	CustomerDetails *CustomerDetails `json:"customerDetails" bson:"customerDetails"`
	DeliveryDetails *DeliveryDetails `json:"deliveryDetails" bson:"deliveryDetails"`
}

// Units aggregates drink counts over every line, multiplied by line quantity.
func (b *Basket) Units() map[string]int {
	units := make(map[string]int)
	for _, it := range b.Items {
		for slug, n := range it.SelectedProducts {
			units[slug] += n * it.Quantity
		}
	}
	return units
}

// Totals returns the summed line prices and recycling fees.
func (b *Basket) Totals() (price, recycling int) {
	for _, it := range b.Items {
		price += it.TotalPrice
		recycling += it.TotalRecyclingFee
	}
	return price, recycling
}

// Clone returns a deep copy so mutations never leak into the original.
func (b *Basket) Clone() Basket {
	out := Basket{Items: make([]Item, len(b.Items))}
	for i, it := range b.Items {
		it.SelectedProducts = maps.Clone(it.SelectedProducts)
		out.Items[i] = it
	}
	if b.CustomerDetails != nil {
		cd := *b.CustomerDetails
		out.CustomerDetails = &cd
	}
	if b.DeliveryDetails != nil {
		dd := *b.DeliveryDetails
		dd.DeliveryAddress = maps.Clone(dd.DeliveryAddress)
		dd.ProviderDetails = maps.Clone(dd.ProviderDetails)
		out.DeliveryDetails = &dd
	}
	return out
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
