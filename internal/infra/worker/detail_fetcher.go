package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/usecase"
)

var _ usecase.CommitDetailFetcher = (*DetailFetcher)(nil)

// DetailFetcher enriches commits with per-commit stats by fanning the detail
// calls out over the shared pool. A failed lookup degrades to the bare commit
// rather than failing the whole batch.
type DetailFetcher struct {
	source adapter.CommitSourceAdapter
	pool   *Pool
	log    *zerolog.Logger
}

func NewDetailFetcher(source adapter.CommitSourceAdapter, pool *Pool, logger *zerolog.Logger) *DetailFetcher {
	compLog := logger.With().Str("component", "DetailFetcher").Logger()
	return &DetailFetcher{source: source, pool: pool, log: &compLog}
}

func (f *DetailFetcher) FetchAll(ctx context.Context, token, repoFullName string, commits []model.Commit) []model.CommitDetail {
	details := make([]model.CommitDetail, len(commits))
	var wg sync.WaitGroup

	for i, c := range commits {
		i, c := i, c
		wg.Add(1)
		task := func(taskCtx context.Context) error {
			defer wg.Done()
			d, err := f.source.FetchCommitDetail(ctx, token, repoFullName, c.SHA)
			if err != nil {
				f.log.Warn().Str("sha", c.SHA).Err(err).Msg("commit detail fetch failed, using bare commit")
				details[i] = model.CommitDetail{Commit: c}
				return nil
			}
			details[i] = *d
			return nil
		}
		if err := f.pool.Submit(task); err != nil {
			// queue saturated, run inline
			_ = task(ctx)
		}
	}

	wg.Wait()
	return details
}
