package adapter

import (
	"context"
	"time"

	"commit-reflections/internal/domain/model"
)

// CommitSourceAdapter fetches commit activity from the source-control host.
type CommitSourceAdapter interface {
	// FetchCommits lists commits pushed since the given instant, across all
	// branches, deduplicated by SHA.
	FetchCommits(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error)

	// FetchCommitDetail fetches per-commit stats for a single SHA.
	FetchCommitDetail(ctx context.Context, token, repoFullName, sha string) (*model.CommitDetail, error)
}
