package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/infrastructure/store/mocks"
)

var (
	_ session.Store      = (*PostgresSessionStore)(nil)
	_ session.Store      = (*MongoSessionStore)(nil)
	_ session.Store      = (*mocks.MockSessionStore)(nil)
	_ catalog.Repository = (*PostgresCatalog)(nil)
	_ catalog.Repository = (*MongoCatalog)(nil)
	_ catalog.Repository = (*mocks.MockCatalog)(nil)
	_ CatalogWriter      = (*PostgresCatalog)(nil)
	_ CatalogWriter      = (*MongoCatalog)(nil)
	_ SummaryStore       = (*PostgresSummaryStore)(nil)
	_ SummaryStore       = (*MongoSummaryStore)(nil)
	_ SummaryStore       = (*mocks.MockSummaryStore)(nil)
)

func TestDecodeSession_VersionColumnWins(t *testing.T) {
	sess := session.New(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	sess.Version = 2
	sess.Selections = nil
	data, err := json.Marshal(sess)
	require.NoError(t, err)

	got, err := decodeSession(data, 7)

	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, int64(7), got.Version)
	assert.NotNil(t, got.Selections)
}

func TestDecodeSession_Corrupt(t *testing.T) {
	_, err := decodeSession([]byte("{"), 1)
	assert.Error(t, err)
}
