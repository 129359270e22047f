//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"commit-reflections/internal/domain"
	"commit-reflections/internal/domain/model"
	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/domain/ports/repository"
)

func newPipelineForTest(
	refls *mockReflectionRepo,
	pushes *mockPushSignals,
	source *mockCommitSource,
	gen *mockGenerator,
	images *mockImages,
	notifier *mockNotifier,
) *pipelineUC {
	uc := NewPipelineUseCase(refls, pushes, source, &mockDetailFetcher{}, gen, images, notifier, newTestLogger())
	uc.now = func() time.Time { return at(22, 0) }
	return uc
}

func someCommits(n int) []model.Commit {
	out := make([]model.Commit, n)
	for i := range out {
		out[i] = model.Commit{
			SHA:     string(rune('a'+i)) + "1234567",
			Message: "change something",
			Author:  "Sam",
		}
	}
	return out
}

func TestPipelineUC_Execute(t *testing.T) {
	ctx := context.Background()
	repo := activeRepo("r1")
	job := model.NewReflectionJob("r1", at(21, 0))

	t.Run("an active day saves a reflection and emails the owner", func(t *testing.T) {
		refls := &mockReflectionRepo{}
		pushes := &mockPushSignals{}
		notifier := &mockNotifier{}
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				return someCommits(3), nil
			},
		}
		images := &mockImages{
			GenerateImageFunc: func(ctx context.Context, content string) (string, error) {
				return "https://img.example.com/x.png", nil
			},
		}
		uc := newPipelineForTest(refls, pushes, source, &mockGenerator{}, images, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}

		if len(refls.Saved) != 1 {
			t.Fatalf("expected one reflection saved, got %d", len(refls.Saved))
		}
		saved := refls.Saved[0]
		if saved.CommitCount != 3 {
			t.Errorf("expected commit count 3, got %d", saved.CommitCount)
		}
		if saved.Content != "reflection" {
			t.Errorf("unexpected content %q", saved.Content)
		}
		if saved.ImageURL != "https://img.example.com/x.png" {
			t.Errorf("expected image URL on reflection, got %q", saved.ImageURL)
		}
		if len(saved.CommitData) == 0 {
			t.Error("expected commit metadata stored")
		}

		if len(notifier.Sent) != 1 {
			t.Fatalf("expected one email, got %d", len(notifier.Sent))
		}
		if notifier.Sent[0].Recipient != repo.OwnerEmail {
			t.Errorf("expected email to owner, got %q", notifier.Sent[0].Recipient)
		}
		if len(pushes.Cleared) != 1 || pushes.Cleared[0] != repo.ID {
			t.Errorf("expected push signal cleared for repo, got %v", pushes.Cleared)
		}
	})

	t.Run("the commit window anchors on the prior reflection", func(t *testing.T) {
		anchor := at(21, 30).AddDate(0, 0, -1)
		refls := &mockReflectionRepo{
			FindLatestFunc: func(ctx context.Context, tx repository.Tx, repoID string) (*model.Reflection, error) {
				return &model.Reflection{ID: "prev", RepoID: repoID, CreatedAt: anchor}, nil
			},
		}
		var gotSince time.Time
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				gotSince = since
				return someCommits(1), nil
			},
		}
		uc := newPipelineForTest(refls, &mockPushSignals{}, source, &mockGenerator{}, &mockImages{}, &mockNotifier{})

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if !gotSince.Equal(anchor) {
			t.Errorf("expected window since %v, got %v", anchor, gotSince)
		}
	})

	t.Run("a first-time repo falls back to the default lookback", func(t *testing.T) {
		var gotSince time.Time
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				gotSince = since
				return someCommits(1), nil
			},
		}
		uc := newPipelineForTest(&mockReflectionRepo{}, &mockPushSignals{}, source, &mockGenerator{}, &mockImages{}, &mockNotifier{})

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if want := at(22, 0).Add(-defaultCommitLookback); !gotSince.Equal(want) {
			t.Errorf("expected default lookback %v, got %v", want, gotSince)
		}
	})

	t.Run("image failure does not block the reflection", func(t *testing.T) {
		refls := &mockReflectionRepo{}
		notifier := &mockNotifier{}
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				return someCommits(1), nil
			},
		}
		images := &mockImages{
			GenerateImageFunc: func(ctx context.Context, content string) (string, error) {
				return "", errors.New("imagen quota exhausted")
			},
		}
		uc := newPipelineForTest(refls, &mockPushSignals{}, source, &mockGenerator{}, images, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if len(refls.Saved) != 1 || refls.Saved[0].ImageURL != "" {
			t.Error("expected reflection saved without an image")
		}
		if len(notifier.Sent) != 1 {
			t.Error("expected email despite image failure")
		}
	})

	t.Run("email failure does not fail the job", func(t *testing.T) {
		refls := &mockReflectionRepo{}
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				return someCommits(1), nil
			},
		}
		notifier := &mockNotifier{
			SendFunc: func(ctx context.Context, n adapter.Notification) error {
				return errors.New("resend 500")
			},
		}
		uc := newPipelineForTest(refls, &mockPushSignals{}, source, &mockGenerator{}, &mockImages{}, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("expected success despite email failure, got %v", err)
		}
		if len(refls.Saved) != 1 {
			t.Error("expected reflection saved")
		}
	})

	t.Run("a lost save race is success and suppresses the email", func(t *testing.T) {
		refls := &mockReflectionRepo{
			SaveIfAbsentFunc: func(ctx context.Context, tx repository.Tx, r *model.Reflection) (bool, error) {
				return false, nil
			},
		}
		notifier := &mockNotifier{}
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				return someCommits(1), nil
			},
		}
		uc := newPipelineForTest(refls, &mockPushSignals{}, source, &mockGenerator{}, &mockImages{}, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("expected success on lost race, got %v", err)
		}
		if len(notifier.Sent) != 0 {
			t.Error("expected no email; the winning writer owns the notification")
		}
	})

	t.Run("a commit fetch failure propagates for retry", func(t *testing.T) {
		source := &mockCommitSource{
			FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
				return nil, errors.New("github 502")
			},
		}
		uc := newPipelineForTest(&mockReflectionRepo{}, &mockPushSignals{}, source, &mockGenerator{}, &mockImages{}, &mockNotifier{})

		if err := uc.Execute(ctx, job, repo); err == nil {
			t.Fatal("expected error to propagate to the worker")
		}
	})
}

func TestPipelineUC_QuietDays(t *testing.T) {
	ctx := context.Background()
	repo := activeRepo("r1")
	job := model.NewReflectionJob("r1", at(21, 0))

	quietSource := &mockCommitSource{
		FetchCommitsFunc: func(ctx context.Context, token, repoFullName string, since time.Time) ([]model.Commit, error) {
			return nil, nil
		},
	}

	t.Run("a quiet day below the ceiling produces a quiet reflection", func(t *testing.T) {
		refls := &mockReflectionRepo{
			RecentCommitCountsFunc: func(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error) {
				return []int{0, 5, 0}, nil // streak of 1
			},
		}
		var gotStreak int
		gen := &mockGenerator{
			GenerateQuietFunc: func(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
				gotStreak = quietStreak
				return &adapter.GeneratedReflection{Content: "quiet note", Summary: "quiet"}, nil
			},
		}
		notifier := &mockNotifier{}
		uc := newPipelineForTest(refls, &mockPushSignals{}, quietSource, gen, &mockImages{}, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if gotStreak != 1 {
			t.Errorf("expected streak 1, got %d", gotStreak)
		}
		if len(refls.Saved) != 1 || refls.Saved[0].CommitCount != 0 {
			t.Error("expected a zero-commit reflection saved")
		}
		if len(notifier.Sent) != 1 {
			t.Error("expected quiet-day email")
		}
	})

	t.Run("the streak counts only consecutive leading quiet days", func(t *testing.T) {
		if got := quietStreak([]int{0, 0, 3, 0}); got != 2 {
			t.Errorf("expected streak 2, got %d", got)
		}
		if got := quietStreak([]int{4, 0, 0}); got != 0 {
			t.Errorf("expected streak 0, got %d", got)
		}
		if got := quietStreak(nil); got != 0 {
			t.Errorf("expected streak 0 for no history, got %d", got)
		}
	})

	t.Run("at the ceiling the system goes silent", func(t *testing.T) {
		refls := &mockReflectionRepo{
			RecentCommitCountsFunc: func(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error) {
				return []int{0, 0, 0}, nil // streak of 3
			},
		}
		gen := &mockGenerator{
			GenerateQuietFunc: func(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
				t.Fatal("generator must not be called at the ceiling")
				return nil, nil
			},
		}
		notifier := &mockNotifier{}
		uc := newPipelineForTest(refls, &mockPushSignals{}, quietSource, gen, &mockImages{}, notifier)

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("expected silent success, got %v", err)
		}
		if len(refls.Saved) != 0 {
			t.Error("expected no reflection at the ceiling")
		}
		if len(notifier.Sent) != 0 {
			t.Error("expected no email at the ceiling")
		}
	})

	t.Run("activity resets the streak and resumes quiet notes", func(t *testing.T) {
		refls := &mockReflectionRepo{
			RecentCommitCountsFunc: func(ctx context.Context, tx repository.Tx, repoID string, limit int) ([]int, error) {
				// Yesterday had commits, so the quiet run before it no longer counts.
				return []int{0, 7, 0, 0, 0}, nil
			},
		}
		var called bool
		gen := &mockGenerator{
			GenerateQuietFunc: func(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
				called = true
				if quietStreak != 1 {
					t.Errorf("expected streak 1 after reset, got %d", quietStreak)
				}
				return &adapter.GeneratedReflection{Content: "back to quiet", Summary: "q"}, nil
			},
		}
		uc := newPipelineForTest(refls, &mockPushSignals{}, quietSource, gen, &mockImages{}, &mockNotifier{})

		if err := uc.Execute(ctx, job, repo); err != nil {
			t.Fatalf("execute failed: %v", err)
		}
		if !called {
			t.Error("expected quiet generator to run after streak reset")
		}
	})
}
