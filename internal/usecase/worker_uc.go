package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
	"commit-reflections/internal/infra/metrics"
)

const (
	// DefaultWorkerBudget bounds one worker invocation, leaving margin under
	// a platform-imposed five minute ceiling.
	DefaultWorkerBudget = 4 * time.Minute

	// StalenessThreshold is how long a job may sit in processing before it is
	// presumed abandoned and swept back to pending.
	StalenessThreshold = 10 * time.Minute
)

// WorkerReport summarizes one worker invocation for the invocation surface.
type WorkerReport struct {
	Recovered int `json:"recovered"`
	Processed int `json:"processed"`
	Completed int `json:"completed"`
	Requeued  int `json:"requeued"`
	Failed    int `json:"failed"`
}

// PipelineExecutor runs the content-generation workflow for one claimed job.
type PipelineExecutor interface {
	Execute(ctx context.Context, job *model.ReflectionJob, repo *model.TrackedRepo) error
}

// WorkerUseCase claims and processes pending jobs, one at a time, inside a
// wall-clock budget. Safe to run as multiple overlapping invocations: the
// job table's atomic claim is the only synchronization.
type WorkerUseCase interface {
	RunPass(ctx context.Context) (WorkerReport, error)
}

var _ WorkerUseCase = (*workerUC)(nil)

type workerUC struct {
	jobs       repository.ReflectionJobRepository
	repos      repository.TrackedRepoRepository
	pipeline   PipelineExecutor
	budget     time.Duration
	staleAfter time.Duration
	now        func() time.Time
	log        *zerolog.Logger
}

func NewWorkerUseCase(
	jobs repository.ReflectionJobRepository,
	repos repository.TrackedRepoRepository,
	pipeline PipelineExecutor,
	budget time.Duration,
	logger *zerolog.Logger,
) *workerUC {
	if budget <= 0 {
		budget = DefaultWorkerBudget
	}
	compLog := logger.With().Str("component", "Worker").Logger()
	return &workerUC{
		jobs:       jobs,
		repos:      repos,
		pipeline:   pipeline,
		budget:     budget,
		staleAfter: StalenessThreshold,
		now:        time.Now,
		log:        &compLog,
	}
}

func (w *workerUC) RunPass(ctx context.Context) (WorkerReport, error) {
	var report WorkerReport

	// Sweep abandoned jobs back to pending before claiming anything, so this
	// very invocation can pick them up.
	recovered, err := w.jobs.RequeueStale(ctx, w.now().Add(-w.staleAfter))
	if err != nil {
		return report, err
	}
	report.Recovered = recovered
	if recovered > 0 {
		metrics.AddJobsRecovered(recovered)
		w.log.Warn().Int("count", recovered).Msg("stale processing jobs requeued")
	}

	deadline := w.now().Add(w.budget)
	for w.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		job, err := w.jobs.ClaimNext(ctx)
		if errors.Is(err, domain.ErrNotFound) {
			break // nothing left this invocation
		}
		if err != nil {
			return report, err
		}

		report.Processed++
		w.processOne(ctx, job, &report)
	}

	w.log.Info().
		Int("processed", report.Processed).
		Int("completed", report.Completed).
		Int("requeued", report.Requeued).
		Int("failed", report.Failed).
		Int("recovered", report.Recovered).
		Msg("worker pass finished")
	return report, nil
}

func (w *workerUC) processOne(ctx context.Context, job *model.ReflectionJob, report *WorkerReport) {
	log := w.log.With().
		Str("job_id", job.ID).
		Str("repo_id", job.RepoID).
		Int("attempt", job.Attempts).
		Logger()

	repo, err := w.repos.FindByID(ctx, repository.NoTX, job.RepoID)
	if errors.Is(err, domain.ErrNotFound) {
		// The repo itself is gone; retrying cannot help.
		msg := domain.ErrRepoGone.Error()
		if ferr := w.jobs.MarkFailed(ctx, repository.NoTX, job.ID, msg); ferr != nil {
			log.Error().Err(ferr).Msg("could not mark job failed")
		}
		report.Failed++
		metrics.IncJobProcessed(string(model.JobStatusFailed))
		log.Error().Msg("job failed: tracked repo missing")
		return
	}
	if err != nil {
		w.finishFailure(ctx, job, err, report, &log)
		return
	}

	start := w.now()
	err = w.pipeline.Execute(ctx, job, repo)
	metrics.ObservePipelineDuration(time.Since(start).Seconds(), err == nil)

	if err != nil {
		w.finishFailure(ctx, job, err, report, &log)
		return
	}

	if err := w.jobs.MarkCompleted(ctx, repository.NoTX, job.ID); err != nil {
		log.Error().Err(err).Msg("could not mark job completed")
		return
	}
	report.Completed++
	metrics.IncJobProcessed(string(model.JobStatusCompleted))
	log.Info().Dur("duration", time.Since(start)).Msg("job completed")
}

// finishFailure requeues a retryable failure or terminally fails the job
// once its attempts are exhausted. Attempts were already incremented at
// claim time, so the comparison is against the current value.
func (w *workerUC) finishFailure(ctx context.Context, job *model.ReflectionJob, cause error, report *WorkerReport, log *zerolog.Logger) {
	if job.Attempts >= job.MaxAttempts {
		if err := w.jobs.MarkFailed(ctx, repository.NoTX, job.ID, cause.Error()); err != nil {
			log.Error().Err(err).Msg("could not mark job failed")
			return
		}
		report.Failed++
		metrics.IncJobProcessed(string(model.JobStatusFailed))
		log.Error().Err(cause).Msg("job failed terminally")
		return
	}

	if err := w.jobs.Requeue(ctx, repository.NoTX, job.ID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("could not requeue job")
		return
	}
	report.Requeued++
	metrics.IncJobProcessed("requeued")
	log.Warn().Err(cause).Msg("job requeued for retry")
}
