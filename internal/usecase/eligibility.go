package usecase

import (
	"time"

	"commit-reflections/internal/domain/model"
)

const (
	// Reflection window in the owner's local time: hour >= 21 or hour < 5.
	reflectionWindowStartHour = 21
	reflectionWindowEndHour   = 5

	// A push younger than this means the owner is still committing; the
	// scheduler defers to a later run.
	inactivityThreshold = time.Hour
)

// EligibilityDecision is the outcome of evaluating one repo snapshot.
// When Create is false, Reason says which rule vetoed it.
type EligibilityDecision struct {
	Create   bool
	WorkDate time.Time
	Reason   string
}

func skip(reason string) EligibilityDecision {
	return EligibilityDecision{Reason: reason}
}

// EvaluateEligibility applies the scheduling rules to one repo snapshot at
// the given instant. Rules short-circuit in order; existence checks against
// reflections and jobs happen afterwards in the scheduler pass, since they
// need storage.
func EvaluateEligibility(repo *model.TrackedRepo, lastPush *time.Time, now time.Time) EligibilityDecision {
	if repo.Status == model.SubscriptionCancelled {
		return skip("subscription_cancelled")
	}
	if repo.TrialExpired(now) {
		return skip("trial_expired")
	}
	if repo.AccessToken == "" {
		return skip("no_credential")
	}

	loc, err := time.LoadLocation(repo.Timezone)
	if err != nil {
		return skip("bad_timezone")
	}
	local := now.In(loc)
	hour := local.Hour()
	if hour < reflectionWindowStartHour && hour >= reflectionWindowEndHour {
		return skip("outside_window")
	}

	// Late-night sessions before the cutoff belong to the prior day.
	workDate := local
	if hour < reflectionWindowEndHour {
		workDate = local.AddDate(0, 0, -1)
	}

	if lastPush != nil && now.Sub(*lastPush) < inactivityThreshold {
		return skip("recent_push")
	}

	return EligibilityDecision{Create: true, WorkDate: model.NormalizeWorkDate(workDate)}
}
