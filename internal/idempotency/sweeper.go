package idempotency

import (
	"context"
	"log/slog"
	"time"
)

type expiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically removes expired idempotency keys.
type Sweeper struct {
	store    expiredDeleter
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(store expiredDeleter, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.store.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("failed to sweep idempotency keys", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("swept expired idempotency keys", "deleted", deleted)
	}
}
