package repository

import (
	"context"
	"time"

	"commit-reflections/internal/domain/model"
)

// ReflectionJobRepository owns the reflection_jobs table, the only shared
// state between scheduler and worker invocations.
type ReflectionJobRepository interface {
	// CreateIfAbsent inserts the job unless one already exists for its
	// (repo, work date) pair. Returns false, nil on collision; a concurrent
	// scheduler pass inserting the same pair is not an error.
	CreateIfAbsent(ctx context.Context, tx Tx, job *model.ReflectionJob) (bool, error)

	// ClaimNext atomically claims the oldest pending job: status becomes
	// processing, started_at is stamped and attempts is incremented, all in
	// one transaction that skips rows locked by concurrent claimants.
	// Returns domain.ErrNotFound when no pending job exists.
	ClaimNext(ctx context.Context) (*model.ReflectionJob, error)

	// RequeueStale resets processing jobs whose started_at is older than the
	// cutoff back to pending with started_at cleared, and returns how many
	// were recovered. Attempts are untouched; they only advance at claim time.
	RequeueStale(ctx context.Context, olderThan time.Time) (int, error)

	// MarkCompleted finishes a job successfully (terminal).
	MarkCompleted(ctx context.Context, tx Tx, jobID string) error

	// MarkFailed finishes a job terminally with the final error preserved.
	MarkFailed(ctx context.Context, tx Tx, jobID, lastError string) error

	// Requeue returns a failed-but-retryable job to pending, clearing
	// started_at and recording the error.
	Requeue(ctx context.Context, tx Tx, jobID, lastError string) error

	// ExistsActive reports whether a pending or processing job already exists
	// for the pair, so the scheduler avoids duplicate enqueues.
	ExistsActive(ctx context.Context, tx Tx, repoID string, workDate time.Time) (bool, error)

	ListRecent(ctx context.Context, tx Tx, status model.JobStatus, limit int) ([]*model.ReflectionJob, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.JobStatus]int, error)
}
