package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/domain/ports/repository"
	"commit-reflections/internal/infra/metrics"
)

const (
	// Lookback when a repo has no prior reflection to anchor the window on.
	defaultCommitLookback = 24 * time.Hour

	// After this many consecutive quiet-day reflections the system goes
	// silent until real activity resumes.
	quietEscalationLimit = 3

	// How much history to read when recomputing the quiet streak.
	quietHistoryLimit = 10

	// Cap on commits that get per-commit detail fetches in one run.
	maxCommitDetails = 20
)

// CommitDetailFetcher resolves per-commit stats for a batch of commits, with
// bounded parallelism. Individual fetch failures degrade to the plain commit.
type CommitDetailFetcher interface {
	FetchAll(ctx context.Context, token, repoFullName string, commits []model.Commit) []model.CommitDetail
}

var _ PipelineExecutor = (*pipelineUC)(nil)

type pipelineUC struct {
	reflections repository.ReflectionRepository
	pushes      repository.PushSignalRepository
	commits     adapter.CommitSourceAdapter
	details     CommitDetailFetcher
	generator   adapter.ContentGeneratorAdapter
	images      adapter.ImageGeneratorAdapter
	notifier    adapter.NotifierAdapter
	now         func() time.Time
	log         *zerolog.Logger
}

func NewPipelineUseCase(
	reflections repository.ReflectionRepository,
	pushes repository.PushSignalRepository,
	commits adapter.CommitSourceAdapter,
	details CommitDetailFetcher,
	generator adapter.ContentGeneratorAdapter,
	images adapter.ImageGeneratorAdapter,
	notifier adapter.NotifierAdapter,
	logger *zerolog.Logger,
) *pipelineUC {
	compLog := logger.With().Str("component", "Pipeline").Logger()
	return &pipelineUC{
		reflections: reflections,
		pushes:      pushes,
		commits:     commits,
		details:     details,
		generator:   generator,
		images:      images,
		notifier:    notifier,
		now:         time.Now,
		log:         &compLog,
	}
}

// Execute runs the content-generation workflow for one claimed job. Errors
// from the fetch/generate stages propagate to the worker's retry logic;
// image generation and email delivery are best-effort.
func (p *pipelineUC) Execute(ctx context.Context, job *model.ReflectionJob, repo *model.TrackedRepo) error {
	log := p.log.With().Str("job_id", job.ID).Str("repo", repo.FullName).Logger()

	since, err := p.commitWindow(ctx, repo.ID)
	if err != nil {
		return err
	}

	commits, err := p.commits.FetchCommits(ctx, repo.AccessToken, repo.FullName, since)
	if err != nil {
		return fmt.Errorf("fetch commits: %w", err)
	}

	rc := adapter.ReflectionContext{
		RepoFullName: repo.FullName,
		OwnerName:    repo.OwnerName,
		WorkDate:     job.WorkDate,
	}

	var gen *adapter.GeneratedReflection
	if len(commits) == 0 {
		gen, err = p.quietDay(ctx, repo, rc, &log)
		if err != nil {
			return err
		}
		if gen == nil {
			return nil // escalation ceiling reached; go silent
		}
	} else {
		batch := commits
		if len(batch) > maxCommitDetails {
			batch = batch[:maxCommitDetails]
		}
		rc.Commits = p.details.FetchAll(ctx, repo.AccessToken, repo.FullName, batch)
		gen, err = p.generator.Generate(ctx, rc)
		if err != nil {
			return fmt.Errorf("generate reflection: %w", err)
		}
	}

	// Illustration is best-effort; the reflection simply has no image.
	imageURL, err := p.images.GenerateImage(ctx, gen.Content)
	if err != nil {
		log.Warn().Err(err).Msg("image generation failed; continuing without one")
		imageURL = ""
	}

	refl := model.NewReflection(repo.ID, job.WorkDate)
	refl.Content = gen.Content
	refl.Summary = gen.Summary
	refl.CommitCount = len(commits)
	refl.ImageURL = imageURL
	if len(commits) > 0 {
		refl.CommitData, _ = json.Marshal(commits)
	}

	inserted, err := p.reflections.SaveIfAbsent(ctx, repository.NoTX, refl)
	if err != nil {
		return fmt.Errorf("save reflection: %w", err)
	}
	if !inserted {
		// Another path already wrote this (repo, work date). Success, and
		// whoever wrote it owns the notification.
		log.Info().Msg("reflection already exists; nothing to do")
		return nil
	}
	metrics.IncReflectionSaved(len(commits) == 0)

	if err := p.pushes.Clear(ctx, repo.ID); err != nil {
		log.Warn().Err(err).Msg("could not clear push signal")
	}

	if err := p.notifier.Send(ctx, adapter.Notification{
		Recipient: repo.OwnerEmail,
		Subject:   fmt.Sprintf("Your reflection for %s", job.WorkDate.Format("January 2")),
		Content:   gen.Content,
		ImageURL:  imageURL,
	}); err != nil {
		metrics.IncEmailSent(false)
		log.Warn().Err(err).Msg("notification failed; reflection is already saved")
	} else {
		metrics.IncEmailSent(true)
	}

	log.Info().Int("commits", len(commits)).Msg("reflection created")
	return nil
}

// commitWindow anchors the fetch window on the most recent prior reflection,
// falling back to a fixed lookback for first-time repos.
func (p *pipelineUC) commitWindow(ctx context.Context, repoID string) (time.Time, error) {
	latest, err := p.reflections.FindLatest(ctx, repository.NoTX, repoID)
	if errors.Is(err, domain.ErrNotFound) {
		return p.now().Add(-defaultCommitLookback), nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return latest.CreatedAt, nil
}

// quietDay handles a zero-commit work date. Returns nil when the quiet
// streak has hit the escalation ceiling and the system should stay silent.
func (p *pipelineUC) quietDay(ctx context.Context, repo *model.TrackedRepo, rc adapter.ReflectionContext, log *zerolog.Logger) (*adapter.GeneratedReflection, error) {
	counts, err := p.reflections.RecentCommitCounts(ctx, repository.NoTX, repo.ID, quietHistoryLimit)
	if err != nil {
		return nil, err
	}
	streak := quietStreak(counts)
	if streak >= quietEscalationLimit {
		metrics.IncQuietSuppressed()
		log.Info().Int("streak", streak).Msg("quiet streak at ceiling; staying silent")
		return nil, nil
	}

	gen, err := p.generator.GenerateQuiet(ctx, rc, streak)
	if err != nil {
		return nil, fmt.Errorf("generate quiet reflection: %w", err)
	}
	return gen, nil
}

// quietStreak counts consecutive zero-commit reflections, newest first,
// stopping at the first day with activity.
func quietStreak(recentCounts []int) int {
	streak := 0
	for _, c := range recentCounts {
		if c != 0 {
			break
		}
		streak++
	}
	return streak
}
