package dining

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs the periodic expiry sweep alongside the lazy per-read
// expiry, so long-untouched invitations still get cleaned up.
type Scheduler struct {
	service  Service
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler creates a new dining scheduler
func NewScheduler(service Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{service: service, interval: interval, logger: logger}
}

// Start launches the sweep loop until the context is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	go s.runSweep(ctx)
}

func (s *Scheduler) runSweep(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.service.SweepExpired(ctx); err != nil {
				s.logger.Error("expiry sweep failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
