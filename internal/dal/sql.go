package dal

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Billy-Davies-2/psl-draft/internal/models"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL stores.
// Queries are written with ? placeholders and rebound per driver.
type sqlStore struct {
	db       *sql.DB
	numbered bool
	timeout  time.Duration
}

// rebind rewrites ? placeholders as $1, $2, ... for drivers that need it.
func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// replace runs fn inside a transaction after clearing table.
func (s *sqlStore) replace(table string, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := s.withTimeout()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) LoadPlayers() ([]*models.Player, error) {
	ctx, cancel := s.withTimeout()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, rating, price, country, category, picked
		FROM players ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &p.Rating, &p.Price, &p.Country, &category, &p.Picked); err != nil {
			return nil, err
		}
		p.Category = models.Category(category)
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (s *sqlStore) SavePlayers(players []*models.Player) error {
	return s.replace("players", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO players (seq, id, name, rating, price, country, category, picked)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, p := range players {
			if _, err := stmt.ExecContext(ctx, i, p.ID, p.Name, p.Rating, p.Price, p.Country, string(p.Category), p.Picked); err != nil {
				return fmt.Errorf("insert player %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) LoadTeams() ([]*models.Team, error) {
	ctx, cancel := s.withTimeout()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, password, max_points, max_budget, current_points, current_budget, foreign_players, predraft_count
		FROM teams ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t := &models.Team{Categories: make(map[models.Category]struct{})}
		err := rows.Scan(&t.Name, &t.Password, &t.MaxPoints, &t.MaxBudget,
			&t.CurrentPoints, &t.CurrentBudget, &t.ForeignPlayers, &t.PreDraftCount)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *sqlStore) SaveTeams(teams []*models.Team) error {
	return s.replace("teams", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO teams (position, name, password, max_points, max_budget, current_points, current_budget, foreign_players, predraft_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range teams {
			_, err := stmt.ExecContext(ctx, i, t.Name, t.Password, t.MaxPoints, t.MaxBudget,
				t.CurrentPoints, t.CurrentBudget, t.ForeignPlayers, t.PreDraftCount)
			if err != nil {
				return fmt.Errorf("insert team %s: %w", t.Name, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) LoadAssignments(teams []*models.Team, players map[string]*models.Player) error {
	ctx, cancel := s.withTimeout()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT team_name, player_id, category, phase
		FROM team_players ORDER BY seq
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		var category string
		var phase int
		if err := rows.Scan(&a.TeamName, &a.PlayerID, &category, &phase); err != nil {
			return err
		}
		a.Category = models.Category(category)
		a.Phase = models.Phase(phase)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return applyAssignments(teams, players, assignments)
}

func (s *sqlStore) SaveAssignments(teams []*models.Team) error {
	return s.replace("team_players", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO team_players (seq, team_name, player_id, category, phase)
			VALUES (?, ?, ?, ?, ?)
		`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, a := range assignmentsOf(teams) {
			if _, err := stmt.ExecContext(ctx, i, a.TeamName, a.PlayerID, string(a.Category), int(a.Phase)); err != nil {
				return fmt.Errorf("insert assignment %s/%s: %w", a.TeamName, a.PlayerID, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) LoadDraftState() (*models.DraftSnapshot, error) {
	ctx, cancel := s.withTimeout()
	defer cancel()

	snap := &models.DraftSnapshot{}
	err := s.db.QueryRowContext(ctx, `SELECT started, rounds, consumed FROM draft_state WHERE id = 1`).
		Scan(&snap.Started, &snap.Rounds, &snap.Consumed)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT team_index, player_id, round FROM draft_history ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.TeamIndex, &h.PlayerID, &h.Round); err != nil {
			return nil, err
		}
		snap.History = append(snap.History, h)
	}
	return snap, rows.Err()
}

func (s *sqlStore) SaveDraftState(state models.DraftSnapshot) error {
	return s.replace("draft_history", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM draft_state"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO draft_state (id, started, rounds, consumed) VALUES (1, ?, ?, ?)
		`), state.Started, state.Rounds, state.Consumed)
		if err != nil {
			return fmt.Errorf("insert draft state: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, s.rebind(`
			INSERT INTO draft_history (seq, team_index, player_id, round) VALUES (?, ?, ?, ?)
		`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, h := range state.History {
			if _, err := stmt.ExecContext(ctx, i, h.TeamIndex, h.PlayerID, h.Round); err != nil {
				return fmt.Errorf("insert history entry %d: %w", i, err)
			}
		}
		return nil
	})
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
