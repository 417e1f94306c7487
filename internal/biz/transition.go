package biz

import (
	"slices"
	"time"

	"clinicflow/subscription-service/internal/errors"
)

// Transition is an edge of the status graph.
type Transition struct {
	From Status
	To   Status
}

var validTransitions = map[Transition]bool{
	{StatusActive, StatusTrial}:    true, // free account samples a paid plan
	{StatusActive, StatusActive}:   true, // plan change
	{StatusActive, StatusCanceled}: true, // paid plan canceled
	{StatusTrial, StatusActive}:    true, // trial converted, or dropped back to free
	{StatusTrial, StatusExpired}:   true, // trial lapsed
	{StatusTrial, StatusCanceled}:  true, // trial abandoned
	{StatusExpired, StatusActive}:  true, // re-subscription or free
	{StatusCanceled, StatusActive}: true, // re-subscription or free
}

// CanTransition reports whether the status graph has an edge from -> to.
func CanTransition(from, to Status) bool {
	return validTransitions[Transition{from, to}]
}

// ValidTransitionsFrom returns the reachable statuses from from, sorted.
func ValidTransitionsFrom(from Status) []Status {
	targets := make([]Status, 0)
	for t := range validTransitions {
		if t.From == from {
			targets = append(targets, t.To)
		}
	}
	slices.Sort(targets)
	return targets
}

// StartTrial moves a free, active account onto a trial of a paid plan.
// An account that is already trialing or paying cannot start another trial.
func StartTrial(c *Catalog, sub Subscription, target PlanID, now time.Time) (Subscription, error) {
	if err := sub.Validate(c); err != nil {
		return Subscription{}, err
	}
	plan, err := c.GetPlan(target)
	if err != nil {
		return Subscription{}, err
	}
	if !plan.IsPaid() {
		return Subscription{}, errors.InvalidTransition("account %s cannot trial the %s plan", sub.AccountID, target)
	}
	if sub.Status != StatusActive || sub.PlanType != PlanFree {
		return Subscription{}, errors.InvalidTransition(
			"account %s cannot start a trial from %s/%s", sub.AccountID, sub.PlanType, sub.Status)
	}

	now = now.UTC()
	next := sub.clone()
	next.PlanType = plan.ID
	next.Status = StatusTrial
	next.TrialStartedAt = &now
	next.UpdatedAt = now
	next.ReportedTrialDaysRemaining = intPtr(TrialDaysRemainingAt(next, now))
	return next, nil
}

// UpgradePlan moves the account to target as an active subscription from any
// status. Passing PlanFree is how an account returns to the free tier.
func UpgradePlan(c *Catalog, sub Subscription, target PlanID, now time.Time) (Subscription, error) {
	if err := sub.Validate(c); err != nil {
		return Subscription{}, err
	}
	plan, err := c.GetPlan(target)
	if err != nil {
		return Subscription{}, err
	}
	if err := checkTransition(sub, StatusActive); err != nil {
		return Subscription{}, err
	}

	next := sub.clone()
	next.PlanType = plan.ID
	next.Status = StatusActive
	next.TrialStartedAt = nil
	next.ReportedTrialDaysRemaining = intPtr(0)
	next.UpdatedAt = now.UTC()
	return next, nil
}

// DowngradeToFree is UpgradePlan with the free plan.
func DowngradeToFree(c *Catalog, sub Subscription, now time.Time) (Subscription, error) {
	return UpgradePlan(c, sub, PlanFree, now)
}

// CancelSubscription ends a paid subscription or a running trial.
func CancelSubscription(c *Catalog, sub Subscription, now time.Time) (Subscription, error) {
	if err := sub.Validate(c); err != nil {
		return Subscription{}, err
	}
	switch {
	case sub.Status == StatusTrial:
	case sub.Status == StatusActive && sub.PlanType != PlanFree:
	default:
		return Subscription{}, errors.InvalidTransition(
			"account %s cannot cancel from %s/%s", sub.AccountID, sub.PlanType, sub.Status)
	}
	if err := checkTransition(sub, StatusCanceled); err != nil {
		return Subscription{}, err
	}

	next := sub.clone()
	next.Status = StatusCanceled
	next.TrialStartedAt = nil
	next.ReportedTrialDaysRemaining = intPtr(0)
	next.UpdatedAt = now.UTC()
	return next, nil
}

// ExpireTrial records the lapse of a trial whose days have run out.
func ExpireTrial(c *Catalog, sub Subscription, now time.Time) (Subscription, error) {
	if err := sub.Validate(c); err != nil {
		return Subscription{}, err
	}
	if sub.Status != StatusTrial {
		return Subscription{}, errors.InvalidTransition("account %s is not on trial", sub.AccountID)
	}
	if days := TrialDaysRemainingAt(sub, now); days > 0 {
		return Subscription{}, errors.InvalidTransition(
			"account %s trial still has %d days remaining", sub.AccountID, days)
	}
	if err := checkTransition(sub, StatusExpired); err != nil {
		return Subscription{}, err
	}

	next := sub.clone()
	next.Status = StatusExpired
	next.TrialStartedAt = nil
	next.ReportedTrialDaysRemaining = intPtr(0)
	next.UpdatedAt = now.UTC()
	return next, nil
}

func checkTransition(sub Subscription, to Status) error {
	if !CanTransition(sub.Status, to) {
		return errors.InvalidTransition("account %s cannot move from %s to %s", sub.AccountID, sub.Status, to)
	}
	return nil
}

func intPtr(v int) *int { return &v }
