package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/usecase"
)

// SchedulerRunner drives the eligibility pass on a fixed interval. It is the
// in-process alternative to hitting the cron endpoint from an external timer.
type SchedulerRunner struct {
	interval time.Duration
	uc       usecase.SchedulerUseCase
	log      *zerolog.Logger
}

func NewSchedulerRunner(interval time.Duration, uc usecase.SchedulerUseCase, logger *zerolog.Logger) *SchedulerRunner {
	runLog := logger.With().Str("component", "SchedulerRunner").Logger()
	return &SchedulerRunner{interval: interval, uc: uc, log: &runLog}
}

func (r *SchedulerRunner) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("starting scheduler runner")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping scheduler runner")
			return ctx.Err()
		case <-ticker.C:
			report, err := r.uc.RunPass(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("scheduler pass error")
				continue
			}
			if report.Created > 0 {
				r.log.Info().Int("evaluated", report.Evaluated).Int("created", report.Created).Msg("jobs enqueued")
			}
		}
	}
}
