//go:build !integration

package usecase

import (
	"testing"
	"time"

	"commit-reflections/internal/domain/model"
)

func TestEvaluateEligibility_Window(t *testing.T) {
	repo := activeRepo("r1")

	t.Run("one minute before the window opens is a skip", func(t *testing.T) {
		d := EvaluateEligibility(repo, nil, at(20, 59))
		if d.Create {
			t.Fatal("expected skip at 20:59")
		}
		if d.Reason != "outside_window" {
			t.Errorf("expected outside_window, got %q", d.Reason)
		}
	})

	t.Run("the window opens at 21:00 sharp", func(t *testing.T) {
		d := EvaluateEligibility(repo, nil, at(21, 0))
		if !d.Create {
			t.Fatalf("expected create at 21:00, got skip (%s)", d.Reason)
		}
		want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
		if !d.WorkDate.Equal(want) {
			t.Errorf("expected work date %v, got %v", want, d.WorkDate)
		}
	})

	t.Run("before 05:00 the work date is the prior day", func(t *testing.T) {
		d := EvaluateEligibility(repo, nil, at(2, 30))
		if !d.Create {
			t.Fatalf("expected create at 02:30, got skip (%s)", d.Reason)
		}
		want := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
		if !d.WorkDate.Equal(want) {
			t.Errorf("expected work date %v, got %v", want, d.WorkDate)
		}
	})

	t.Run("the window closes at 05:00", func(t *testing.T) {
		d := EvaluateEligibility(repo, nil, at(5, 0))
		if d.Create {
			t.Fatal("expected skip at 05:00")
		}
	})

	t.Run("the window follows the owner's timezone", func(t *testing.T) {
		tokyo := activeRepo("r2")
		tokyo.Timezone = "Asia/Tokyo"
		// 13:00 UTC is 22:00 in Tokyo.
		d := EvaluateEligibility(tokyo, nil, at(13, 0))
		if !d.Create {
			t.Fatalf("expected create for Tokyo evening, got skip (%s)", d.Reason)
		}
	})
}

func TestEvaluateEligibility_Activity(t *testing.T) {
	repo := activeRepo("r1")
	now := at(22, 0)

	t.Run("a push ten minutes ago defers the run", func(t *testing.T) {
		push := now.Add(-10 * time.Minute)
		d := EvaluateEligibility(repo, &push, now)
		if d.Create {
			t.Fatal("expected skip while owner is still committing")
		}
		if d.Reason != "recent_push" {
			t.Errorf("expected recent_push, got %q", d.Reason)
		}
	})

	t.Run("a push over an hour ago does not block", func(t *testing.T) {
		push := now.Add(-90 * time.Minute)
		d := EvaluateEligibility(repo, &push, now)
		if !d.Create {
			t.Fatalf("expected create after the quiet hour, got skip (%s)", d.Reason)
		}
	})

	t.Run("no push signal at all does not block", func(t *testing.T) {
		d := EvaluateEligibility(repo, nil, now)
		if !d.Create {
			t.Fatalf("expected create with no push signal, got skip (%s)", d.Reason)
		}
	})
}

func TestEvaluateEligibility_Subscription(t *testing.T) {
	now := at(22, 0)

	t.Run("cancelled subscriptions never run", func(t *testing.T) {
		repo := activeRepo("r1")
		repo.Status = model.SubscriptionCancelled
		d := EvaluateEligibility(repo, nil, now)
		if d.Create || d.Reason != "subscription_cancelled" {
			t.Errorf("expected subscription_cancelled skip, got %+v", d)
		}
	})

	t.Run("expired trials never run", func(t *testing.T) {
		repo := activeRepo("r1")
		repo.Status = model.SubscriptionTrial
		ended := now.Add(-24 * time.Hour)
		repo.TrialEndsAt = &ended
		d := EvaluateEligibility(repo, nil, now)
		if d.Create || d.Reason != "trial_expired" {
			t.Errorf("expected trial_expired skip, got %+v", d)
		}
	})

	t.Run("a live trial runs", func(t *testing.T) {
		repo := activeRepo("r1")
		repo.Status = model.SubscriptionTrial
		ends := now.Add(24 * time.Hour)
		repo.TrialEndsAt = &ends
		d := EvaluateEligibility(repo, nil, now)
		if !d.Create {
			t.Errorf("expected create for live trial, got skip (%s)", d.Reason)
		}
	})

	t.Run("a repo without a credential is skipped", func(t *testing.T) {
		repo := activeRepo("r1")
		repo.AccessToken = ""
		d := EvaluateEligibility(repo, nil, now)
		if d.Create || d.Reason != "no_credential" {
			t.Errorf("expected no_credential skip, got %+v", d)
		}
	})

	t.Run("an unknown timezone is skipped, not fatal", func(t *testing.T) {
		repo := activeRepo("r1")
		repo.Timezone = "Mars/Olympus_Mons"
		d := EvaluateEligibility(repo, nil, now)
		if d.Create || d.Reason != "bad_timezone" {
			t.Errorf("expected bad_timezone skip, got %+v", d)
		}
	})
}
