package biz

import (
	"time"

	"clinicflow/subscription-service/internal/errors"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusCanceled Status = "canceled"
)

// TrialLengthDays is shared by every trial-eligible plan.
const TrialLengthDays = 7

func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

// Subscription is the entitlement record of one account.
// Patient limit and features are not stored here; they are derived from
// PlanType through the catalog on every evaluation.
type Subscription struct {
	AccountID string
	PlanType  PlanID
	Status    Status
	// TrialStartedAt is set if and only if Status is trial.
	TrialStartedAt *time.Time
	// ReportedTrialDaysRemaining is the value precomputed by the backend when
	// the record was written. Informational only; the evaluator recomputes it.
	ReportedTrialDaysRemaining *int
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// NewDefaultSubscription is the record every new account starts with.
func NewDefaultSubscription(accountID string, now time.Time) Subscription {
	now = now.UTC()
	return Subscription{
		AccountID: accountID,
		PlanType:  PlanFree,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the record against the catalog and the trial invariants.
func (s Subscription) Validate(c *Catalog) error {
	if _, err := c.GetPlan(s.PlanType); err != nil {
		return err
	}
	if !s.Status.Valid() {
		return errors.InvalidSubscription("account %s has unknown status %q", s.AccountID, s.Status)
	}
	if s.Status == StatusTrial && s.TrialStartedAt == nil {
		return errors.InvalidSubscription("account %s is on trial without a trial start", s.AccountID)
	}
	if s.Status != StatusTrial && s.TrialStartedAt != nil {
		return errors.InvalidSubscription("account %s has a trial start but status %q", s.AccountID, s.Status)
	}
	if s.Status == StatusTrial && s.PlanType == PlanFree {
		return errors.InvalidSubscription("account %s cannot trial the free plan", s.AccountID)
	}
	return nil
}

// clone returns a deep copy so transitions never share pointers with their input.
func (s Subscription) clone() Subscription {
	if s.TrialStartedAt != nil {
		t := *s.TrialStartedAt
		s.TrialStartedAt = &t
	}
	if s.ReportedTrialDaysRemaining != nil {
		d := *s.ReportedTrialDaysRemaining
		s.ReportedTrialDaysRemaining = &d
	}
	return s
}

// TrialEndsAt returns the instant the trial stops granting access, if any.
func (s Subscription) TrialEndsAt() *time.Time {
	if s.Status != StatusTrial || s.TrialStartedAt == nil {
		return nil
	}
	end := s.TrialStartedAt.Add(TrialLengthDays * 24 * time.Hour)
	return &end
}
