package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/mixbox-shop/internal/domain/selection"
	"github.com/example/mixbox-shop/internal/domain/session"
)

// PostgresSessionStore keeps each session as a JSONB document with a version column.
type PostgresSessionStore struct {
	db *sql.DB
}

func NewPostgresSessionStore(db *sql.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, version FROM sessions WHERE id = $1`, id,
	).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(data, version)
}

func (s *PostgresSessionStore) Create(ctx context.Context, sess *session.Session) error {
	sess.Version = 1
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, data, sess.Version, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Save writes sess only if the stored version still matches sess.Version.
func (s *PostgresSessionStore) Save(ctx context.Context, sess *session.Session) error {
	next := *sess
	next.Version = sess.Version + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET data = $3, version = $4, updated_at = $5 WHERE id = $1 AND version = $2`,
		sess.ID, sess.Version, data, next.Version, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.missOrConflict(ctx, sess.ID)
	}
	sess.Version = next.Version
	return nil
}

func (s *PostgresSessionStore) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if !exists {
		return session.ErrSessionNotFound
	}
	return session.ErrVersionConflict
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `DELETE FROM sessions WHERE updated_at < $1 RETURNING id`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sweep sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, fmt.Errorf("sweep sessions: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresSessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// decodeSession unmarshals a stored document. The version column is authoritative.
func decodeSession(data []byte, version int64) (*session.Session, error) {
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	sess.Version = version
	if sess.Selections == nil {
		sess.Selections = map[string]*selection.Temporary{}
	}
	return &sess, nil
}
