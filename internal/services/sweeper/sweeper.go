package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CachePurger deletes expired raw cache entries.
type CachePurger interface {
	PurgeExpiredCache(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired cache entries so that rows nobody
// reads again do not pile up.
type Sweeper struct {
	log      *slog.Logger
	repo     CachePurger
	interval time.Duration
}

type Interface interface {
	// Sweep performs one purge cycle.
	Sweep(ctx context.Context) (int64, error)
	// Run sweeps on every tick until ctx is canceled.
	Run(ctx context.Context)
}

// NewSweeper creates a new Sweeper instance. A non-positive interval disables Run.
func NewSweeper(log *slog.Logger, repo CachePurger, interval time.Duration) *Sweeper {
	return &Sweeper{log: log, repo: repo, interval: interval}
}

// Sweep performs one purge cycle.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	const opn = "sweeper.Sweep"
	log := s.log.With("op", opn)

	purged, err := s.repo.PurgeExpiredCache(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to purge expired cache: %w", opn, err)
	}

	if purged > 0 {
		log.InfoContext(ctx, "Expired cache entries removed", "count", purged)
	} else {
		log.DebugContext(ctx, "No expired cache entries")
	}

	return purged, nil
}

// Run blocks until ctx is canceled. Failed cycles are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	const opn = "sweeper.Run"
	log := s.log.With("op", opn)

	if s.interval <= 0 {
		log.InfoContext(ctx, "Cache sweep disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.InfoContext(ctx, "Cache sweep started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Cache sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				log.ErrorContext(ctx, "Cache sweep failed", "error", err)
			}
		}
	}
}
