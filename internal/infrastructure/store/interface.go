package store

import (
	"context"

	"github.com/example/mixbox-shop/internal/readmodel"
)

// SummaryStore persists projected basket summaries.
type SummaryStore interface {
	Get(ctx context.Context, sessionID string) (*readmodel.BasketSummary, bool, error)
	Upsert(ctx context.Context, s *readmodel.BasketSummary) error
	Delete(ctx context.Context, sessionID string) error
}
