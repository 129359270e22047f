package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Reflection is the generated artifact for one repo and one work date:
// the AI-written text plus optional summary and illustration.
type Reflection struct {
	ID          string
	RepoID      string
	WorkDate    time.Time // date-only, midnight UTC
	Content     string
	Summary     string
	CommitCount int
	CommitData  []byte // raw commit metadata as stored at generation time
	ImageURL    string
	CreatedAt   time.Time
}

func NewReflection(repoID string, workDate time.Time) *Reflection {
	now := time.Now()
	return &Reflection{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		RepoID:    repoID,
		WorkDate:  NormalizeWorkDate(workDate),
		CreatedAt: now,
	}
}
