package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
	"commit-reflections/internal/infra/metrics"
)

// SchedulerReport summarizes one scheduler pass for the invocation surface.
type SchedulerReport struct {
	Evaluated int `json:"evaluated"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// SchedulerUseCase runs the eligibility pass over all active repos and
// enqueues pending jobs. It holds no state between passes; the job table is
// the only memory.
type SchedulerUseCase interface {
	RunPass(ctx context.Context) (SchedulerReport, error)
}

var _ SchedulerUseCase = (*schedulerUC)(nil)

type schedulerUC struct {
	repos       repository.TrackedRepoRepository
	jobs        repository.ReflectionJobRepository
	reflections repository.ReflectionRepository
	pushes      repository.PushSignalRepository
	now         func() time.Time
	log         *zerolog.Logger
}

func NewSchedulerUseCase(
	repos repository.TrackedRepoRepository,
	jobs repository.ReflectionJobRepository,
	reflections repository.ReflectionRepository,
	pushes repository.PushSignalRepository,
	logger *zerolog.Logger,
) *schedulerUC {
	compLog := logger.With().Str("component", "Scheduler").Logger()
	return &schedulerUC{
		repos:       repos,
		jobs:        jobs,
		reflections: reflections,
		pushes:      pushes,
		now:         time.Now,
		log:         &compLog,
	}
}

func (s *schedulerUC) RunPass(ctx context.Context) (SchedulerReport, error) {
	var report SchedulerReport

	repos, err := s.repos.ListActive(ctx, repository.NoTX)
	if err != nil {
		return report, err
	}

	now := s.now()
	for _, repo := range repos {
		report.Evaluated++
		created, reason, err := s.evaluateOne(ctx, repo, now)
		if err != nil {
			// One broken repo must not starve the rest of the pass.
			s.log.Error().Err(err).Str("repo_id", repo.ID).Msg("eligibility check failed")
			report.Skipped++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Skipped++
			metrics.IncSchedulerSkip(reason)
		}
	}

	metrics.AddJobsCreated(report.Created)
	s.log.Info().
		Int("evaluated", report.Evaluated).
		Int("created", report.Created).
		Int("skipped", report.Skipped).
		Msg("scheduler pass finished")
	return report, nil
}

func (s *schedulerUC) evaluateOne(ctx context.Context, repo *model.TrackedRepo, now time.Time) (bool, string, error) {
	lastPush, err := s.pushes.Last(ctx, repo.ID)
	if err != nil {
		return false, "", err
	}

	decision := EvaluateEligibility(repo, lastPush, now)
	if !decision.Create {
		return false, decision.Reason, nil
	}

	exists, err := s.reflections.Exists(ctx, repository.NoTX, repo.ID, decision.WorkDate)
	if err != nil {
		return false, "", err
	}
	if exists {
		return false, "reflection_exists", nil
	}

	active, err := s.jobs.ExistsActive(ctx, repository.NoTX, repo.ID, decision.WorkDate)
	if err != nil {
		return false, "", err
	}
	if active {
		return false, "job_exists", nil
	}

	job := model.NewReflectionJob(repo.ID, decision.WorkDate)
	inserted, err := s.jobs.CreateIfAbsent(ctx, repository.NoTX, job)
	if err != nil {
		return false, "", err
	}
	if !inserted {
		// Lost the race against a concurrent scheduler pass. Fine.
		return false, "job_exists", nil
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("repo_id", repo.ID).
		Str("work_date", job.WorkDate.Format("2006-01-02")).
		Msg("reflection job enqueued")
	return true, "", nil
}
