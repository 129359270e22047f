package repository

import (
	"context"
	"time"
)

// PushSignalRepository tracks the last webhook push seen per repo. The
// scheduler reads it to defer repos whose owner is still committing; the
// pipeline clears it after a reflection so the next pass does not re-trigger
// on the same inactivity window.
type PushSignalRepository interface {
	Record(ctx context.Context, repoID string, at time.Time) error

	// Last returns the recorded push time, or nil when no live signal exists.
	Last(ctx context.Context, repoID string) (*time.Time, error)

	Clear(ctx context.Context, repoID string) error
}
