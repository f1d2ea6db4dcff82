package readmodel

import "time"

// BasketSummary is the projected overview of one session's basket.
type BasketSummary struct {
	SessionID          string    `json:"session_id" bson:"_id"`
	LineCount          int       `json:"line_count" bson:"lineCount"`
	PackageCount       int       `json:"package_count" bson:"packageCount"`
	ItemsTotal         int       `json:"items_total" bson:"itemsTotal"`
	RecyclingTotal     int       `json:"recycling_total" bson:"recyclingTotal"`
	DeliveryType       string    `json:"delivery_type,omitempty" bson:"deliveryType,omitempty"`
	DeliveryFee        int       `json:"delivery_fee" bson:"deliveryFee"`
	GrandTotal         int       `json:"grand_total" bson:"grandTotal"`
	Currency           string    `json:"currency" bson:"currency"`
	HasCustomerDetails bool      `json:"has_customer_details" bson:"hasCustomerDetails"`
	LastAction         string    `json:"last_action" bson:"lastAction"`
	Version            int64     `json:"version" bson:"version"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updatedAt"`
}
