package query

import "github.com/example/mixbox-shop/internal/domain/basket"

// BasketDetails is the client view of a basket.
type BasketDetails struct {
	Items           []basket.Item           `json:"items"`
	CustomerDetails *basket.CustomerDetails `json:"customerDetails"`
	DeliveryDetails *basket.DeliveryDetails `json:"deliveryDetails"`
	Totals          BasketTotals            `json:"totals"`
}

// BasketTotals are derived sums in minor units.
type BasketTotals struct {
	Items       int    `json:"items"`
	Recycling   int    `json:"recycling"`
	DeliveryFee int    `json:"deliveryFee"`
	Total       int    `json:"total"`
	Currency    string `json:"currency"`
}

// PriceQuery asks for the price of a drink mapping without storing it.
type PriceQuery struct {
	PackageSlug      string
	Size             int
	SelectedProducts map[string]int
}
