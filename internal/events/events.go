// Package events defines the basket events published after committed changes.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/mixbox-shop/internal/domain/basket"
)

const AggregateType = "basket"

const (
	EventBasketChanged  = "BasketChanged"
	EventSessionDeleted = "SessionDeleted"
)

// Event is the envelope written to the message bus.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int64           `json:"version"`
}

// BasketChanged carries the basket totals after an action was applied.
type BasketChanged struct {
	SessionID          string    `json:"session_id"`
	Action             string    `json:"action"`
	LineCount          int       `json:"line_count"`
	PackageCount       int       `json:"package_count"`
	ItemsTotal         int       `json:"items_total"`
	RecyclingTotal     int       `json:"recycling_total"`
	DeliveryType       string    `json:"delivery_type,omitempty"`
	DeliveryFee        int       `json:"delivery_fee"`
	Currency           string    `json:"currency"`
	HasCustomerDetails bool      `json:"has_customer_details"`
	OccurredAt         time.Time `json:"occurred_at"`
}

type SessionDeleted struct {
	SessionID  string    `json:"session_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewBasketChanged summarises b after action.
func NewBasketChanged(sessionID, action, currency string, b *basket.Basket, at time.Time) BasketChanged {
	price, recycling := b.Totals()
	packages := 0
	for _, it := range b.Items {
		packages += it.Quantity
	}
	e := BasketChanged{
		SessionID:          sessionID,
		Action:             action,
		LineCount:          len(b.Items),
		PackageCount:       packages,
		ItemsTotal:         price,
		RecyclingTotal:     recycling,
		Currency:           currency,
		HasCustomerDetails: b.CustomerDetails != nil,
		OccurredAt:         at,
	}
	if b.DeliveryDetails != nil {
		e.DeliveryType = string(b.DeliveryDetails.DeliveryType)
		e.DeliveryFee = b.DeliveryDetails.DeliveryFee
		e.Currency = b.DeliveryDetails.Currency
	}
	return e
}

// Publisher sends a keyed message.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Recorder wraps payloads in an Event and publishes them keyed by session id.
type Recorder struct {
	publisher Publisher
	now       func() time.Time
}

func NewRecorder(publisher Publisher) *Recorder {
	return &Recorder{publisher: publisher, now: time.Now}
}

// Record publishes data as eventType for aggregateID. A nil publisher only builds the event.
func (r *Recorder) Record(ctx context.Context, aggregateID, eventType string, version int64, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	event := Event{
		ID:            uuid.NewString(),
		AggregateID:   aggregateID,
		AggregateType: AggregateType,
		EventType:     eventType,
		Data:          raw,
		Timestamp:     r.now().UTC(),
		Version:       version,
	}
	if r.publisher == nil {
		return &event, nil
	}
	if err := r.publisher.Publish(ctx, aggregateID, event); err != nil {
		return &event, err
	}
	return &event, nil
}
