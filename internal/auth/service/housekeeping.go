package service

import (
	"context"
	"log/slog"
	"time"
)

// sweeper is the part of SessionManager the housekeeping loop needs.
type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// HousekeepingService periodically deletes sessions that have been idle past
// the timeout. Validation never depends on it; it only bounds table growth
// from sessions nobody presents again.
type HousekeepingService struct {
	Sessions sweeper
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative, defaults to 15 minutes.
func NewHousekeepingService(sessions sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, waiting for an in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.Sessions.Sweep(ctx)
	if err != nil {
		s.Logger.Error("failed to sweep idle sessions", "error", err)
		return
	}
	s.Logger.Info("housekeeping sweep completed", "sessions_deleted", n)
}
