package store

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter is implemented by stores that can purge expired
// sessions in bulk.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically removes expired sessions.
type Sweeper struct {
	store    ExpiredSessionDeleter
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	removed  func(n int)
}

func NewSweeper(store ExpiredSessionDeleter, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger, now: time.Now}
}

// OnRemoved registers fn to be told how many sessions each pass removed.
func (s *Sweeper) OnRemoved(fn func(n int)) *Sweeper {
	s.removed = fn
	return s
}

// Sweep runs a single cleanup pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
		if s.removed != nil {
			s.removed(n)
		}
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("error cleaning up expired sessions", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
