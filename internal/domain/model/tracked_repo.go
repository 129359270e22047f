package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// TrackedRepo is one repository an owner has connected for nightly
// reflections, together with the owner/subscription fields the scheduler
// needs. The scheduler reads a fresh snapshot of every active repo on each
// pass; nothing here is cached between invocations.
type TrackedRepo struct {
	ID          string
	FullName    string // "owner/name" on the source-control host
	OwnerName   string
	OwnerEmail  string
	Timezone    string // IANA name, e.g. "America/New_York"
	Status      SubscriptionStatus
	TrialEndsAt *time.Time
	AccessToken string // credential for the source-control host; empty means none
	CreatedAt   time.Time
}

// TrialExpired reports whether a trial subscription has lapsed at the given
// instant. Non-trial repos never expire this way.
func (r *TrackedRepo) TrialExpired(now time.Time) bool {
	return r.Status == SubscriptionTrial && r.TrialEndsAt != nil && r.TrialEndsAt.Before(now)
}
