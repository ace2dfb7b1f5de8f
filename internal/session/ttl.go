package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ashureev/startup-navigator/internal/store"
)

// DefaultSweepInterval is how often idle sessions are looked for.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper expires wizard sessions that have been idle longer than the TTL.
// Expiry is the server-side equivalent of closing the browser tab.
type Sweeper struct {
	repo     store.Repository
	ttl      time.Duration
	interval time.Duration
}

// NewSweeper creates a sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(repo store.Repository, ttl, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{repo: repo, ttl: ttl, interval: interval}
}

// Run sweeps on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	slog.Info("TTL worker started", "interval", s.interval, "ttl", s.ttl)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			slog.Info("TTL worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep removes expired sessions once and reports how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	deleted, err := s.repo.CleanupExpiredSessions(ctx, s.ttl)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("TTL worker: context canceled during cleanup", "error", err)
			return 0
		}
		slog.Error("TTL worker failed to cleanup expired sessions", "error", err)
		return 0
	}
	if deleted > 0 {
		slog.Info("TTL worker cleaned up expired sessions", "count", deleted)
	}
	return deleted
}
