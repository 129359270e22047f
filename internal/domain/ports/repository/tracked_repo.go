package repository

import (
	"context"

	"commit-reflections/internal/domain/model"
)

type TrackedRepoRepository interface {
	// ListActive returns every repo whose subscription is not cancelled.
	// Finer-grained eligibility (trial expiry, window, activity) is the
	// scheduler's job.
	ListActive(ctx context.Context, tx Tx) ([]*model.TrackedRepo, error)

	FindByID(ctx context.Context, tx Tx, id string) (*model.TrackedRepo, error)
}
