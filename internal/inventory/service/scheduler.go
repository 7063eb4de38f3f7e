package service

import (
	"context"
	"time"

	"github.com/vendora/vendora-backend/pkg/config"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// SweepScheduler fires the expiry sweep once a day at a configured local time.
// The sweep itself is also invocable on demand via RunNow; both paths run the
// identical job.
type SweepScheduler struct {
	sweep    *ExpirySweepService
	runAt    string
	location *time.Location
	logger   *logger.Logger
	cancel   context.CancelFunc
}

// NewSweepScheduler creates a new sweep scheduler. The config is expected to
// be pre-validated: runAt as "HH:MM" and a loadable timezone.
func NewSweepScheduler(sweep *ExpirySweepService, cfg *config.SweepConfig, log *logger.Logger) (*SweepScheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	if _, err := time.Parse("15:04", cfg.RunAt); err != nil {
		return nil, err
	}

	return &SweepScheduler{
		sweep:    sweep,
		runAt:    cfg.RunAt,
		location: location,
		logger:   log,
	}, nil
}

// Start starts the scheduler in a background goroutine
func (s *SweepScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().
			Str("run_at", s.runAt).
			Str("timezone", s.location.String()).
			Msg("sweep scheduler started")

		for {
			wait := time.Until(s.nextRun(time.Now().In(s.location)))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.logger.Info().Msg("sweep scheduler stopped")
				return
			case <-timer.C:
				if _, err := s.sweep.Run(ctx); err != nil {
					s.logger.Error().Err(err).Msg("scheduled expiry sweep failed")
				}
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *SweepScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunNow triggers a sweep immediately, outside the schedule
func (s *SweepScheduler) RunNow(ctx context.Context) (*SweepSummary, error) {
	return s.sweep.Run(ctx)
}

// nextRun returns the next occurrence of the configured wall-clock time,
// today if it is still ahead, otherwise tomorrow.
func (s *SweepScheduler) nextRun(now time.Time) time.Time {
	t, _ := time.Parse("15:04", s.runAt)

	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
