package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/usecase"
)

// WorkerRunner drains the job queue on a fixed interval.
type WorkerRunner struct {
	interval time.Duration
	uc       usecase.WorkerUseCase
	log      *zerolog.Logger
}

func NewWorkerRunner(interval time.Duration, uc usecase.WorkerUseCase, logger *zerolog.Logger) *WorkerRunner {
	runLog := logger.With().Str("component", "WorkerRunner").Logger()
	return &WorkerRunner{interval: interval, uc: uc, log: &runLog}
}

func (r *WorkerRunner) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("starting worker runner")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("stopping worker runner")
			return ctx.Err()
		case <-ticker.C:
			report, err := r.uc.RunPass(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("worker pass error")
				continue
			}
			if report.Processed > 0 || report.Recovered > 0 {
				r.log.Info().
					Int("processed", report.Processed).
					Int("completed", report.Completed).
					Int("requeued", report.Requeued).
					Int("failed", report.Failed).
					Int("recovered", report.Recovered).
					Msg("worker pass done")
			}
		}
	}
}
