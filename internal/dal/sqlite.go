package dal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (or creates) the database file at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{sqlStore{db: db, timeout: 10 * time.Second}}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		rating INTEGER NOT NULL,
		price INTEGER NOT NULL,
		country TEXT NOT NULL,
		category TEXT NOT NULL,
		picked BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS teams (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		max_points INTEGER NOT NULL,
		max_budget INTEGER NOT NULL,
		current_points INTEGER NOT NULL DEFAULT 0,
		current_budget INTEGER NOT NULL DEFAULT 0,
		foreign_players INTEGER NOT NULL DEFAULT 0,
		predraft_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS team_players (
		seq INTEGER PRIMARY KEY,
		team_name TEXT NOT NULL,
		player_id TEXT NOT NULL,
		category TEXT NOT NULL,
		phase INTEGER NOT NULL
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
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}
