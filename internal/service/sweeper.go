package service

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the sweeper checks for overdue
// subscriptions.
const DefaultSweepInterval = time.Hour

// Sweeper periodically expires overdue subscription windows so status
// reads never depend on a manual admin sweep.
type Sweeper struct {
	subs     *SubscriptionService
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a subscription expiry sweeper.
func NewSweeper(subs *SubscriptionService, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		subs:     subs,
		interval: DefaultSweepInterval,
		logger:   logger.With("component", "sweeper"),
	}
}

// SetInterval overrides the sweep interval.
func (s *Sweeper) SetInterval(d time.Duration) {
	s.interval = d
}

// Run blocks until ctx is cancelled, sweeping on each tick.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.subs.ExpireAllDue(ctx); err != nil {
				s.logger.Error("expiry sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
