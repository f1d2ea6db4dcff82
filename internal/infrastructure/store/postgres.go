package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions (updated_at)`,
	`CREATE TABLE IF NOT EXISTS packages (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		sizes JSONB NOT NULL DEFAULT '[]',
		drinks TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS drinks (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		sale_price INTEGER NOT NULL,
		recycling_fee INTEGER NOT NULL DEFAULT 0,
		sugar_free BOOLEAN NOT NULL DEFAULT FALSE,
		size TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS basket_summaries (
		session_id TEXT PRIMARY KEY,
		line_count INTEGER NOT NULL,
		package_count INTEGER NOT NULL,
		items_total INTEGER NOT NULL,
		recycling_total INTEGER NOT NULL,
		delivery_type TEXT NOT NULL DEFAULT '',
		delivery_fee INTEGER NOT NULL,
		grand_total INTEGER NOT NULL,
		currency TEXT NOT NULL,
		has_customer_details BOOLEAN NOT NULL,
		last_action TEXT NOT NULL,
		version BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// MigratePostgres creates the tables used by the Postgres stores.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
