//go:build !integration

package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// ---- Mock TrackedRepoRepository ----

type mockRepoRepo struct {
	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.TrackedRepo, error)
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.TrackedRepo, error)
}

var _ repository.TrackedRepoRepository = (*mockRepoRepo)(nil)

func (m *mockRepoRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.TrackedRepo, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, tx)
	}
	return nil, nil
}

func (m *mockRepoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.TrackedRepo, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

// ---- Mock ReflectionJobRepository ----

type mockJobRepo struct {
	mu      sync.Mutex
	Created []*model.ReflectionJob

	CreateIfAbsentFunc func(ctx context.Context, tx repository.Tx, job *model.ReflectionJob) (bool, error)
	ClaimNextFunc      func(ctx context.Context) (*model.ReflectionJob, error)
	RequeueStaleFunc   func(ctx context.Context, olderThan time.Time) (int, error)
	MarkCompletedFunc  func(ctx context.Context, tx repository.Tx, jobID string) error
	MarkFailedFunc     func(ctx context.Context, tx repository.Tx, jobID, lastError string) error
	RequeueFunc        func(ctx context.Context, tx repository.Tx, jobID, lastError string) error
	ExistsActiveFunc   func(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error)
}

var _ repository.ReflectionJobRepository = (*mockJobRepo)(nil)

func (m *mockJobRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, job *model.ReflectionJob) (bool, error) {
	if m.CreateIfAbsentFunc != nil {
		return m.CreateIfAbsentFunc(ctx, tx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, job)
	return true, nil
}

func (m *mockJobRepo) ClaimNext(ctx context.Context) (*model.ReflectionJob, error) {
	if m.ClaimNextFunc != nil {
		return m.ClaimNextFunc(ctx)
	}
	return nil, domain.ErrNotFound
}

func (m *mockJobRepo) RequeueStale(ctx context.Context, olderThan time.Time) (int, error) {
	if m.RequeueStaleFunc != nil {
		return m.RequeueStaleFunc(ctx, olderThan)
	}
	return 0, nil
}

func (m *mockJobRepo) MarkCompleted(ctx context.Context, tx repository.Tx, jobID string) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, tx, jobID)
	}
	return nil
}

func (m *mockJobRepo) MarkFailed(ctx context.Context, tx repository.Tx, jobID, lastError string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, jobID, lastError)
	}
	return nil
}

func (m *mockJobRepo) Requeue(ctx context.Context, tx repository.Tx, jobID, lastError string) error {
	if m.RequeueFunc != nil {
		return m.RequeueFunc(ctx, tx, jobID, lastError)
	}
	return nil
}

func (m *mockJobRepo) ExistsActive(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error) {
	if m.ExistsActiveFunc != nil {
		return m.ExistsActiveFunc(ctx, tx, repoID, workDate)
	}
	return false, nil
}

func (m *mockJobRepo) ListRecent(ctx context.Context, tx repository.Tx, status model.JobStatus, limit int) ([]*model.ReflectionJob, error) {
	return nil, nil
}

func (m *mockJobRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.JobStatus]int, error) {
	return map[model.JobStatus]int{}, nil
}

// ---- Mock ReflectionRepository ----

type mockReflectionRepo struct {
	mu    sync.Mutex
	Saved []*model.Reflection

	SaveIfAbsentFunc       func(ctx context.Context, tx repository.Tx, r *model.Reflection) (bool, error)
	ExistsFunc             func(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error)
	FindLatestFunc         func(ctx context.Context, tx repository.Tx, repoID string) (*model.Reflection, error)
	RecentCommitCountsFunc func(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error)
}

var _ repository.ReflectionRepository = (*mockReflectionRepo)(nil)

func (m *mockReflectionRepo) SaveIfAbsent(ctx context.Context, tx repository.Tx, r *model.Reflection) (bool, error) {
	if m.SaveIfAbsentFunc != nil {
		return m.SaveIfAbsentFunc(ctx, tx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, r)
	return true, nil
}

func (m *mockReflectionRepo) Exists(ctx context.Context, tx repository.Tx, repoID string, workDate time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, tx, repoID, workDate)
	}
	return false, nil
}

func (m *mockReflectionRepo) FindLatest(ctx context.Context, tx repository.Tx, repoID string) (*model.Reflection, error) {
	if m.FindLatestFunc != nil {
		return m.FindLatestFunc(ctx, tx, repoID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockReflectionRepo) RecentCommitCounts(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error) {
	if m.RecentCommitCountsFunc != nil {
		return m.RecentCommitCountsFunc(ctx, tx, repoID, limit)
	}
	return nil, nil
}

// ---- Mock PushSignalRepository ----

type mockPushSignals struct {
	mu      sync.Mutex
	Cleared []string

	RecordFunc func(ctx context.Context, repoID string, at time.Time) error
	LastFunc   func(ctx context.Context, repoID string) (*time.Time, error)
	ClearFunc  func(ctx context.Context, repoID string) error
}

var _ repository.PushSignalRepository = (*mockPushSignals)(nil)

func (m *mockPushSignals) Record(ctx context.Context, repoID string, at time.Time) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, repoID, at)
	}
	return nil
}

func (m *mockPushSignals) Last(ctx context.Context, repoID string) (*time.Time, error) {
	if m.LastFunc != nil {
		return m.LastFunc(ctx, repoID)
	}
	return nil, nil
}

func (m *mockPushSignals) Clear(ctx context.Context, repoID string) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx, repoID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cleared = append(m.Cleared, repoID)
	return nil
}

// ---- Mock adapters ----

type mockCommitSource struct {
	FetchCommitsFunc      func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error)
	FetchCommitDetailFunc func(ctx context.Context, token, repoFullName, sha string) (*model.CommitDetail, error)
}

var _ adapter.CommitSourceAdapter = (*mockCommitSource)(nil)

func (m *mockCommitSource) FetchCommits(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
	if m.FetchCommitsFunc != nil {
		return m.FetchCommitsFunc(ctx, token, repoFullName, since)
	}
	return nil, nil
}

func (m *mockCommitSource) FetchCommitDetail(ctx context.Context, token, repoFullName, sha string) (*model.CommitDetail, error) {
	if m.FetchCommitDetailFunc != nil {
		return m.FetchCommitDetailFunc(ctx, token, repoFullName, sha)
	}
	return &model.CommitDetail{Commit: model.Commit{SHA: sha}}, nil
}

// mockDetailFetcher wraps commits without stats, like the real fetcher does
// when every detail call fails.
type mockDetailFetcher struct {
	FetchAllFunc func(ctx context.Context, token, repoFullName string, commits []model.Commit) []model.CommitDetail
}

func (m *mockDetailFetcher) FetchAll(ctx context.Context, token, repoFullName string, commits []model.Commit) []model.CommitDetail {
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx, token, repoFullName, commits)
	}
	out := make([]model.CommitDetail, len(commits))
	for i, c := range commits {
		out[i] = model.CommitDetail{Commit: c}
	}
	return out
}

type mockGenerator struct {
	GenerateFunc      func(ctx context.Context, rc adapter.ReflectionContext) (*adapter.GeneratedReflection, error)
	GenerateQuietFunc func(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error)
}

var _ adapter.ContentGeneratorAdapter = (*mockGenerator)(nil)

func (m *mockGenerator) Generate(ctx context.Context, rc adapter.ReflectionContext) (*adapter.GeneratedReflection, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, rc)
	}
	return &adapter.GeneratedReflection{Content: "reflection", Summary: "summary"}, nil
}

func (m *mockGenerator) GenerateQuiet(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
	if m.GenerateQuietFunc != nil {
		return m.GenerateQuietFunc(ctx, rc, quietStreak)
	}
	return &adapter.GeneratedReflection{Content: "quiet reflection", Summary: "quiet"}, nil
}

type mockImages struct {
	GenerateImageFunc func(ctx context.Context, content string) (string, error)
}

var _ adapter.ImageGeneratorAdapter = (*mockImages)(nil)

func (m *mockImages) GenerateImage(ctx context.Context, content string) (string, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, content)
	}
	return "", nil
}

type mockNotifier struct {
	mu   sync.Mutex
	Sent []adapter.Notification

	SendFunc func(ctx context.Context, n adapter.Notification) error
}

var _ adapter.NotifierAdapter = (*mockNotifier)(nil)

func (m *mockNotifier) Send(ctx context.Context, n adapter.Notification) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, n)
	return nil
}

type mockPipeline struct {
	ExecuteFunc func(ctx context.Context, job *model.ReflectionJob, repo *model.TrackedRepo) error
}

var _ PipelineExecutor = (*mockPipeline)(nil)

func (m *mockPipeline) Execute(ctx context.Context, job *model.ReflectionJob, repo *model.TrackedRepo) error {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, job, repo)
	}
	return nil
}

// activeRepo builds a repo snapshot that passes every eligibility rule when
// evaluated inside the reflection window.
func activeRepo(id string) *model.TrackedRepo {
	return &model.TrackedRepo{
		ID:          id,
		FullName:    "acme/" + id,
		OwnerName:   "Sam",
		OwnerEmail:  "sam@example.com",
		Timezone:    "UTC",
		Status:      model.SubscriptionActive,
		AccessToken: "tok",
		CreatedAt:   time.Now(),
	}
}

// at builds a UTC instant on a fixed date with the given clock time.
func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 10, hour, min, 0, 0, time.UTC)
}
