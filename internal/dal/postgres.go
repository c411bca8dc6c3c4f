package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore connects to PostgreSQL, retrying while the server (or its
// DNS entry) comes up, and creates the schema.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}
		logger.Warn("Postgres not reachable yet", "attempt", i+1, "error", lastErr)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	s := &PostgresStore{sqlStore{db: db, numbered: true, timeout: 30 * time.Second}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		rating INTEGER NOT NULL,
		price BIGINT NOT NULL,
		country TEXT NOT NULL,
		category TEXT NOT NULL,
		picked BOOLEAN NOT NULL DEFAULT false,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS teams (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		max_points INTEGER NOT NULL,
		max_budget BIGINT NOT NULL,
		current_points INTEGER NOT NULL DEFAULT 0,
		current_budget BIGINT NOT NULL DEFAULT 0,
		foreign_players INTEGER NOT NULL DEFAULT 0,
		predraft_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS team_players (
		seq INTEGER PRIMARY KEY,
		team_name TEXT NOT NULL,
		player_id TEXT NOT NULL,
		category TEXT NOT NULL,
		phase SMALLINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS draft_state (
		id INTEGER PRIMARY KEY,
		started BOOLEAN NOT NULL,
		rounds INTEGER NOT NULL,
		consumed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS draft_history (
		seq INTEGER PRIMARY KEY,
		team_index INTEGER NOT NULL,
		player_id TEXT NOT NULL,
		round INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_players_team_name ON team_players(team_name);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}
