package mocks

import (
	"github.com/Billy-Davies-2/psl-draft/internal/dal"
	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// MockPostgresStore stands in for PostgreSQL during local development by
// storing the same tables in a SQLite file.
type MockPostgresStore struct {
	*dal.SQLiteStore
}

// NewMockPostgresStore opens the SQLite file backing the mock
func NewMockPostgresStore(sqliteFile string) (*MockPostgresStore, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development", "file", sqliteFile)

	store, err := dal.NewSQLiteStore(sqliteFile)
	if err != nil {
		return nil, err
	}
	return &MockPostgresStore{SQLiteStore: store}, nil
}
