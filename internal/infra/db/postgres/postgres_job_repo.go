package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
)

var _ repository.ReflectionJobRepository = (*reflectionJobRepo)(nil)

type reflectionJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewReflectionJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *reflectionJobRepo {
	return &reflectionJobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, repo_id, work_date, status, attempts, max_attempts, COALESCE(last_error, ''), created_at, started_at, completed_at`

func scanJob(row pgx.Row) (*model.ReflectionJob, error) {
	var j model.ReflectionJob
	var statusStr string
	err := row.Scan(
		&j.ID, &j.RepoID, &j.WorkDate, &statusStr, &j.Attempts, &j.MaxAttempts,
		&j.LastError, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(statusStr)
	j.WorkDate = model.NormalizeWorkDate(j.WorkDate)
	return &j, nil
}

func (r *reflectionJobRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, job *model.ReflectionJob) (bool, error) {
	// The UNIQUE (repo_id, work_date) constraint makes the enqueue
	// idempotent; a colliding insert is a no-op, not an error.
	const q = `
INSERT INTO reflection_jobs (id, repo_id, work_date, status, attempts, max_attempts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (repo_id, work_date) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.RepoID, job.WorkDate, job.Status, job.Attempts, job.MaxAttempts, job.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimNext atomically hands the oldest pending job to exactly one caller.
// The SELECT takes a row lock that concurrent claims skip rather than block
// on, so overlapping worker invocations each get a distinct job.
func (r *reflectionJobRepo) ClaimNext(ctx context.Context) (*model.ReflectionJob, error) {
	var job *model.ReflectionJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + jobColumns + `
FROM reflection_jobs
WHERE status = 'pending'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return domain.ErrReadDatabaseRow
		}

		// Attempts advance exactly here, never in the staleness sweep.
		const claimQuery = `
UPDATE reflection_jobs
SET status = 'processing', started_at = now(), attempts = attempts + 1
WHERE id = $1
RETURNING attempts, started_at;`

		row, err = pickRow(ctx, r.pool, tx, claimQuery, fetched.ID)
		if err != nil {
			return err
		}
		if err := row.Scan(&fetched.Attempts, &fetched.StartedAt); err != nil {
			return domain.ErrReadDatabaseRow
		}
		fetched.Status = model.JobStatusProcessing

		job = fetched
		return nil
	})

	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *reflectionJobRepo) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	const q = `
UPDATE reflection_jobs
SET status = 'pending', started_at = NULL
WHERE status = 'processing' AND started_at < $1;`

	tag, err := execSQL(ctx, r.pool, repository.NoTX, q, olderThan)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *reflectionJobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, jobID string) error {
	const q = `
UPDATE reflection_jobs
SET status = 'completed', completed_at = now()
WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, tx, q, jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reflectionJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, lastError string) error {
	const q = `
UPDATE reflection_jobs
SET status = 'failed', completed_at = now(), last_error = $2
WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, tx, q, jobID, lastError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reflectionJobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID, lastError string) error {
	const q = `
UPDATE reflection_jobs
SET status = 'pending', started_at = NULL, last_error = $2
WHERE id = $1 AND status = 'processing';`

	tag, err := execSQL(ctx, r.pool, tx, q, jobID, lastError)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *reflectionJobRepo) ExistsActive(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM reflection_jobs
    WHERE repo_id = $1 AND work_date = $2 AND status IN ('pending', 'processing')
);`

	row, err := pickRow(ctx, r.pool, tx, q, repoID, workDate)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *reflectionJobRepo) ListRecent(ctx context.Context, tx repository.Tx, status model.JobStatus, limit int) ([]*model.ReflectionJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := `SELECT ` + jobColumns + ` FROM reflection_jobs`
	args := []interface{}{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(status))
	}
	q += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit) + `;`

	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ReflectionJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *reflectionJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.JobStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM reflection_jobs GROUP BY status;`

	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[model.JobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[model.JobStatus(status)] = n
	}
	return out, rows.Err()
}
