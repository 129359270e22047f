package repository

import (
	"context"
	"time"

	"commit-reflections/internal/domain/model"
)

type ReflectionRepository interface {
	// SaveIfAbsent persists a reflection unless one already exists for its
	// (repo, work date) pair. Returns false, nil when the pair was taken;
	// the pipeline treats that as success, not as a duplicate write.
	SaveIfAbsent(ctx context.Context, tx Tx, r *model.Reflection) (bool, error)

	Exists(ctx context.Context, tx Tx, repoID string, workDate time.Time) (bool, error)

	// FindLatest returns the most recent reflection for the repo, or
	// domain.ErrNotFound. Its creation time anchors the commit-fetch window.
	FindLatest(ctx context.Context, tx Tx, repoID string) (*model.Reflection, error)

	// RecentCommitCounts returns the commit counts of the repo's most recent
	// reflections, newest first, for quiet-streak computation.
	RecentCommitCounts(ctx context.Context, tx Tx, repoID string, limit int) ([]int, error)
}
