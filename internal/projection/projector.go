package projection

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/events"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
	"github.com/example/mixbox-shop/internal/readmodel"
)

type Projector struct {
	summaries store.SummaryStore
	logger    *zap.Logger
}

func NewProjector(summaries store.SummaryStore, logger *zap.Logger) *Projector {
	return &Projector{summaries: summaries, logger: logger.With(zap.String("component", "projector"))}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event events.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	p.logger.Debug("received event",
		zap.String("event_type", event.EventType),
		zap.String("aggregate_id", event.AggregateID))

	if event.AggregateType != events.AggregateType {
		return nil
	}

	switch event.EventType {
	case events.EventBasketChanged:
		return p.handleBasketChanged(ctx, event)
	case events.EventSessionDeleted:
		return p.summaries.Delete(ctx, event.AggregateID)
	}
	return nil
}

func (p *Projector) handleBasketChanged(ctx context.Context, event events.Event) error {
	var e events.BasketChanged
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	// Only the newest session version is kept.
	current, found, err := p.summaries.Get(ctx, e.SessionID)
	if err != nil {
		return err
	}
	if found && current.Version >= event.Version {
		p.logger.Debug("skipping stale event",
			zap.String("session_id", e.SessionID),
			zap.Int64("version", event.Version),
			zap.Int64("current_version", current.Version))
		return nil
	}

	return p.summaries.Upsert(ctx, &readmodel.BasketSummary{
		SessionID:          e.SessionID,
		LineCount:          e.LineCount,
		PackageCount:       e.PackageCount,
		ItemsTotal:         e.ItemsTotal,
		RecyclingTotal:     e.RecyclingTotal,
		DeliveryType:       e.DeliveryType,
		DeliveryFee:        e.DeliveryFee,
		GrandTotal:         e.ItemsTotal + e.RecyclingTotal + e.DeliveryFee,
		Currency:           e.Currency,
		HasCustomerDetails: e.HasCustomerDetails,
		LastAction:         e.Action,
		Version:            event.Version,
		UpdatedAt:          e.OccurredAt,
	})
}
