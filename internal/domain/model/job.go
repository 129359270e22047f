package model

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// MaxJobAttempts is the ceiling on processing attempts per job.
// The third failure is terminal.
const MaxJobAttempts = 3

// ReflectionJob is the unit of work handed from the scheduler to a worker.
// At most one job exists per (repo, work date); the database enforces it.
type ReflectionJob struct {
	ID          string
	RepoID      string
	WorkDate    time.Time // date-only, normalized to midnight UTC
	Status      JobStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

func NewReflectionJob(repoID string, workDate time.Time) *ReflectionJob {
	return &ReflectionJob{
		ID:          uuid.NewString(),
		RepoID:      repoID,
		WorkDate:    NormalizeWorkDate(workDate),
		Status:      JobStatusPending,
		Attempts:    0,
		MaxAttempts: MaxJobAttempts,
		CreatedAt:   time.Now(),
	}
}

// NormalizeWorkDate strips the clock component so work dates compare and
// persist as plain calendar days.
func NormalizeWorkDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Terminal reports whether the job can never change state again.
func (j *ReflectionJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
