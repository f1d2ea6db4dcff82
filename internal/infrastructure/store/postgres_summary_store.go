package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/mixbox-shop/internal/readmodel"
)

// PostgresSummaryStore implements SummaryStore using PostgreSQL
type PostgresSummaryStore struct {
	db *sql.DB
}

func NewPostgresSummaryStore(db *sql.DB) *PostgresSummaryStore {
	return &PostgresSummaryStore{db: db}
}

func (rs *PostgresSummaryStore) Get(ctx context.Context, sessionID string) (*readmodel.BasketSummary, bool, error) {
	var s readmodel.BasketSummary
	err := rs.db.QueryRowContext(ctx, `
		SELECT session_id, line_count, package_count, items_total, recycling_total,
			delivery_type, delivery_fee, grand_total, currency, has_customer_details,
			last_action, version, updated_at
		FROM basket_summaries WHERE session_id = $1
	`, sessionID).Scan(
		&s.SessionID, &s.LineCount, &s.PackageCount, &s.ItemsTotal, &s.RecyclingTotal,
		&s.DeliveryType, &s.DeliveryFee, &s.GrandTotal, &s.Currency, &s.HasCustomerDetails,
		&s.LastAction, &s.Version, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get summary: %w", err)
	}
	return &s, true, nil
}

// Upsert writes s unless a row with a newer version is already stored.
func (rs *PostgresSummaryStore) Upsert(ctx context.Context, s *readmodel.BasketSummary) error {
	_, err := rs.db.ExecContext(ctx, `
		INSERT INTO basket_summaries (session_id, line_count, package_count, items_total, recycling_total,
			delivery_type, delivery_fee, grand_total, currency, has_customer_details, last_action, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_id) DO UPDATE SET
			line_count = EXCLUDED.line_count,
			package_count = EXCLUDED.package_count,
			items_total = EXCLUDED.items_total,
			recycling_total = EXCLUDED.recycling_total,
			delivery_type = EXCLUDED.delivery_type,
			delivery_fee = EXCLUDED.delivery_fee,
			grand_total = EXCLUDED.grand_total,
			currency = EXCLUDED.currency,
			has_customer_details = EXCLUDED.has_customer_details,
			last_action = EXCLUDED.last_action,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE basket_summaries.version < EXCLUDED.version
	`, s.SessionID, s.LineCount, s.PackageCount, s.ItemsTotal, s.RecyclingTotal,
		s.DeliveryType, s.DeliveryFee, s.GrandTotal, s.Currency, s.HasCustomerDetails,
		s.LastAction, s.Version, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (rs *PostgresSummaryStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := rs.db.ExecContext(ctx, `DELETE FROM basket_summaries WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	return nil
}
