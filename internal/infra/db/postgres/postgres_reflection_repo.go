package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
)

var _ repository.ReflectionRepository = (*reflectionRepo)(nil)

type reflectionRepo struct {
	pool *pgxpool.Pool
}

func NewReflectionRepo(pool *pgxpool.Pool) *reflectionRepo {
	return &reflectionRepo{pool: pool}
}

const reflectionColumns = `id, repo_id, work_date, content, COALESCE(summary, ''), commit_count, commit_data, COALESCE(image_url, ''), created_at`

func scanReflection(row pgx.Row) (*model.Reflection, error) {
	var r model.Reflection
	err := row.Scan(
		&r.ID, &r.RepoID, &r.WorkDate, &r.Content, &r.Summary,
		&r.CommitCount, &r.CommitData, &r.ImageURL, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.WorkDate = model.NormalizeWorkDate(r.WorkDate)
	return &r, nil
}

func (r *reflectionRepo) SaveIfAbsent(ctx context.Context, tx repository.Tx, refl *model.Reflection) (bool, error) {
	// UNIQUE (repo_id, work_date) makes this the idempotent write the
	// pipeline relies on: losing the race is success, not a duplicate.
	const q = `
INSERT INTO reflections (id, repo_id, work_date, content, summary, commit_count, commit_data, image_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (repo_id, work_date) DO NOTHING;`

	tag, err := execSQL(ctx, r.pool, tx, q,
		refl.ID, refl.RepoID, refl.WorkDate, refl.Content, refl.Summary,
		refl.CommitCount, refl.CommitData, refl.ImageURL, refl.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reflectionRepo) Exists(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error) {
	const q = `
SELECT EXISTS(SELECT 1 FROM reflections WHERE repo_id = $1 AND work_date = $2);`

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

func (r *reflectionRepo) FindLatest(ctx context.Context, tx repository.Tx, repoID string) (*model.Reflection, error) {
	const q = `
SELECT ` + reflectionColumns + `
FROM reflections
WHERE repo_id = $1
ORDER BY work_date DESC
LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, repoID)
	if err != nil {
		return nil, err
	}
	refl, err := scanReflection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return refl, nil
}

func (r *reflectionRepo) RecentCommitCounts(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT commit_count
FROM reflections
WHERE repo_id = $1
ORDER BY work_date DESC
LIMIT $2;`

	rows, err := pickRows(ctx, r.pool, tx, q, repoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
