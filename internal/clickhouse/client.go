package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// Client reads player ratings from the ClickHouse analytics store. Ratings
// are appended to player_ratings; the newest row per player wins.
type Client struct {
	conn driver.Conn
}

// NewClient creates a new ClickHouse client
func NewClient(addr, database, username, password string) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	logger.Info("Connected to ClickHouse rating feed", "addr", addr, "database", database)
	return &Client{conn: conn}, nil
}

// GetRating returns the latest rating recorded for one player.
func (c *Client) GetRating(ctx context.Context, playerID string) (int, error) {
	var rating int32

	query := `
		SELECT toInt32(argMax(rating, recorded_at))
		FROM player_ratings
		WHERE player_id = ?
	`
	if err := c.conn.QueryRow(ctx, query, playerID).Scan(&rating); err != nil {
		return 0, fmt.Errorf("rating for %s: %w", playerID, err)
	}
	return int(rating), nil
}

// GetAllRatings returns the latest rating of every player seen in the last
// 30 days.
func (c *Client) GetAllRatings(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT
			player_id,
			toInt32(argMax(rating, recorded_at)) AS rating
		FROM player_ratings
		WHERE recorded_at >= now() - INTERVAL 30 DAY
		GROUP BY player_id
	`

	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ratings := make(map[string]int)
	for rows.Next() {
		var (
			id     string
			rating int32
		)
		if err := rows.Scan(&id, &rating); err != nil {
			return nil, err
		}
		ratings[id] = int(rating)
	}
	return ratings, rows.Err()
}

// SyncRatings hands every rating to update and returns how many were
// applied. A failing update is logged and skipped so one frozen player does
// not block the rest.
func (c *Client) SyncRatings(ctx context.Context, update func(playerID string, rating int) error) (int, error) {
	ratings, err := c.GetAllRatings(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for playerID, rating := range ratings {
		if err := update(playerID, rating); err != nil {
			logger.Debug("Rating update skipped", "player_id", playerID, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Close closes the ClickHouse connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
