package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/store"
)

// HousekeepingService periodically removes expired invite links and
// notifications that were resolved but never deleted.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// ResolvedRetention is how long a resolved notification may linger.
	ResolvedRetention time.Duration
	Now               func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:             st,
		Logger:            logger,
		Interval:          interval,
		ResolvedRetention: 10 * time.Minute,
		Now:               func() time.Time { return time.Now().UTC() },
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

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

// cleanup runs each deletion independently.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()
	now := s.Now()

	links, err := s.Store.Links().DeleteExpiredLinks(ctx, now)
	if err != nil {
		s.Logger.Error("failed to delete expired invite links", "error", err)
	}

	notifications, err := s.Store.Notifications().DeleteResolvedBefore(ctx, now.Add(-s.ResolvedRetention))
	if err != nil {
		s.Logger.Error("failed to delete resolved notifications", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"expired_links", links,
		"resolved_notifications", notifications,
	)
}
