package mocks

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// MockRatingFeed stands in for the ClickHouse rating feed during local
// development. Each read jitters the base ratings by up to two points.
type MockRatingFeed struct {
	mu     sync.Mutex
	base   map[string]int
	jitter bool
	err    error
}

// NewMockRatingFeed creates a feed seeded with ratings for the default pool
func NewMockRatingFeed() *MockRatingFeed {
	logger.Info("Using MOCK rating feed (no ClickHouse server required)")

	return &MockRatingFeed{
		jitter: true,
		base: map[string]int{
			"P1001": 95, // Babar Azam
			"P1002": 93, // Shaheen Afridi
			"P1003": 92, // Mohammad Rizwan
			"P1004": 88, // Naseem Shah
			"P1005": 87, // Haris Rauf
			"P1006": 85, // Shadab Khan
			"P1007": 82, // Fakhar Zaman
			"P1008": 78, // Saim Ayub
			"P1009": 75, // Imad Wasim
			"P1010": 70, // Usama Mir
		},
	}
}

// NewStaticRatingFeed returns a feed that serves exactly ratings, for tests
func NewStaticRatingFeed(ratings map[string]int) *MockRatingFeed {
	return &MockRatingFeed{base: maps.Clone(ratings)}
}

// FailWith makes every subsequent read return err (nil clears it)
func (m *MockRatingFeed) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// GetRating returns one player's rating, falling back to 50 for unknown ids
func (m *MockRatingFeed) GetRating(ctx context.Context, playerID string) (int, error) {
	all, err := m.GetAllRatings(ctx)
	if err != nil {
		return 0, err
	}
	if r, ok := all[playerID]; ok {
		return r, nil
	}
	return 50, nil
}

// GetAllRatings returns the current rating of every known player
func (m *MockRatingFeed) GetAllRatings(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]int, len(m.base))
	for id, r := range m.base {
		if m.jitter {
			r += rand.IntN(5) - 2
		}
		out[id] = max(r, 0)
	}
	return out, nil
}

// SyncRatings hands every rating to update. Individual failures are logged
// and skipped.
func (m *MockRatingFeed) SyncRatings(ctx context.Context, update func(playerID string, rating int) error) (int, error) {
	all, err := m.GetAllRatings(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for id, r := range all {
		if err := update(id, r); err != nil {
			logger.Debug("Mock rating feed: update skipped", "player_id", id, "error", err)
			continue
		}
		applied++
	}
	return applied, nil
}

// Ping always succeeds unless a failure was injected
func (m *MockRatingFeed) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close is a no-op for the mock feed
func (m *MockRatingFeed) Close() error {
	return nil
}
