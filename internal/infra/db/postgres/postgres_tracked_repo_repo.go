package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/repository"
	"commit-reflections/internal/infra/security"
)

var _ repository.TrackedRepoRepository = (*trackedRepoRepo)(nil)

type trackedRepoRepo struct {
	pool *pgxpool.Pool
	enc  *security.EncryptionService // nil means tokens stored in the clear
}

// NewTrackedRepoRepo builds the repo store. When enc is non-nil, access
// tokens are AES-GCM encrypted at rest.
func NewTrackedRepoRepo(pool *pgxpool.Pool, enc *security.EncryptionService) *trackedRepoRepo {
	return &trackedRepoRepo{pool: pool, enc: enc}
}

const repoColumns = `id, full_name, owner_name, owner_email, timezone, status, trial_ends_at, COALESCE(access_token, ''), created_at`

func (r *trackedRepoRepo) scanTrackedRepo(row pgx.Row) (*model.TrackedRepo, error) {
	var repo model.TrackedRepo
	var statusStr string
	err := row.Scan(
		&repo.ID, &repo.FullName, &repo.OwnerName, &repo.OwnerEmail, &repo.Timezone,
		&statusStr, &repo.TrialEndsAt, &repo.AccessToken, &repo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	repo.Status = model.SubscriptionStatus(statusStr)
	if r.enc != nil && repo.AccessToken != "" {
		plain, err := r.enc.Decrypt(repo.AccessToken)
		if err != nil {
			// Row predates encryption; treat the stored value as plaintext.
			plain = repo.AccessToken
		}
		repo.AccessToken = plain
	}
	return &repo, nil
}

func (r *trackedRepoRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.TrackedRepo, error) {
	const q = `
SELECT ` + repoColumns + `
FROM tracked_repos
WHERE status <> 'cancelled'
ORDER BY created_at;`

	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.TrackedRepo
	for rows.Next() {
		repo, err := r.scanTrackedRepo(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, repo)
	}
	return out, rows.Err()
}

func (r *trackedRepoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TrackedRepo, error) {
	const q = `SELECT ` + repoColumns + ` FROM tracked_repos WHERE id = $1;`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	repo, err := r.scanTrackedRepo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return repo, nil
}

// Save exists for the seed tool and tests; the serving path only reads.
func (r *trackedRepoRepo) Save(ctx context.Context, tx repository.Tx, repo *model.TrackedRepo) error {
	token := repo.AccessToken
	if r.enc != nil && token != "" {
		ct, err := r.enc.Encrypt(token)
		if err != nil {
			return err
		}
		token = ct
	}

	const q = `
INSERT INTO tracked_repos (id, full_name, owner_name, owner_email, timezone, status, trial_ends_at, access_token, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  full_name = EXCLUDED.full_name,
  owner_name = EXCLUDED.owner_name,
  owner_email = EXCLUDED.owner_email,
  timezone = EXCLUDED.timezone,
  status = EXCLUDED.status,
  trial_ends_at = EXCLUDED.trial_ends_at,
  access_token = EXCLUDED.access_token;`

	_, err := execSQL(ctx, r.pool, tx, q,
		repo.ID, repo.FullName, repo.OwnerName, repo.OwnerEmail, repo.Timezone,
		repo.Status, repo.TrialEndsAt, token, repo.CreatedAt)
	return err
}
