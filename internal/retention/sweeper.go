// Package retention prunes booking history past its retention window with a
// once-a-day sweep.
package retention

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store is the deletion the sweeper performs.
type Store interface {
	DeleteOldBookings(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds configuration for the retention sweeper.
type Config struct {
	// DailyHour is the hour (0-23) when the sweep runs.
	DailyHour int
	// CheckInterval is how often to check if it's time to run.
	CheckInterval time.Duration
	// RetentionDays is how many days of booking history to keep.
	RetentionDays int
}

// DefaultConfig returns the default sweeper configuration.
func DefaultConfig() Config {
	return Config{
		DailyHour:     4,
		CheckInterval: 1 * time.Minute,
		RetentionDays: 365,
	}
}

// Sweeper runs the daily retention sweep.
type Sweeper struct {
	config Config
	store  Store
	logger *zerolog.Logger

	mu          sync.Mutex
	lastRunDate string // YYYY-MM-DD of last run
	running     bool
	stopCh      chan struct{}
}

// NewSweeper creates a retention sweeper.
func NewSweeper(config Config, store Store, logger *zerolog.Logger) *Sweeper {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 1 * time.Minute
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 365
	}
	return &Sweeper{
		config: config,
		store:  store,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Int("daily_hour", s.config.DailyHour).
		Int("retention_days", s.config.RetentionDays).
		Msg("retention sweeper started")

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkAndRun(ctx)
		}
	}
}

// Stop stops the sweeper.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

// IsRunning returns whether the sweep loop is active.
func (s *Sweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// checkAndRun fires the sweep once per day at the configured hour.
func (s *Sweeper) checkAndRun(ctx context.Context) {
	now := time.Now()
	today := now.Format("2006-01-02")

	s.mu.Lock()
	alreadyRan := s.lastRunDate == today
	s.mu.Unlock()

	if alreadyRan || now.Hour() != s.config.DailyHour {
		return
	}

	s.mu.Lock()
	s.lastRunDate = today
	s.mu.Unlock()

	s.RunNow(ctx)
}

// RunNow forces an immediate sweep.
func (s *Sweeper) RunNow(ctx context.Context) {
	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour

	deleted, err := s.store.DeleteOldBookings(ctx, retention)
	if err != nil {
		s.logger.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("pruned old bookings")
	}
}
