package clickhouse

import (
	"context"
	"time"

	"github.com/Billy-Davies-2/psl-draft/internal/logger"
)

// RatingFeed is a source of external player ratings. Client and the
// development mock both satisfy it.
type RatingFeed interface {
	GetRating(ctx context.Context, playerID string) (int, error)
	GetAllRatings(ctx context.Context) (map[string]int, error)
	SyncRatings(ctx context.Context, update func(playerID string, rating int) error) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// RunSync pulls ratings from feed every interval until ctx is cancelled.
// The first sync runs immediately.
func RunSync(ctx context.Context, feed RatingFeed, interval time.Duration, update func(playerID string, rating int) error) {
	syncOnce := func() {
		syncCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		applied, err := feed.SyncRatings(syncCtx, update)
		if err != nil {
			logger.Warn("Rating sync failed", "error", err)
			return
		}
		logger.Debug("Rating sync complete", "applied", applied)
	}

	syncOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			syncOnce()
		}
	}
}
