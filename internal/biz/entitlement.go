package biz

import (
	"time"

	"clinicflow/subscription-service/internal/errors"
)

// NearPatientLimitMargin is how many free slots remain when the UI starts warning.
const NearPatientLimitMargin = 2

// Clock returns the current time. Injected so evaluations are reproducible.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Entitlement is the resolved view of a subscription at one instant.
type Entitlement struct {
	AccountID string
	PlanType  PlanID
	// EffectivePlan is the plan whose limits and features apply right now.
	EffectivePlan PlanID
	// Status is the evaluated status: a trial with no days left reports expired
	// even when the stored record still says trial.
	Status             Status
	OnTrial            bool
	TrialDaysRemaining int
	TrialEndsAt        *time.Time
	PatientLimit       PatientLimit
	Features           map[Feature]bool
	EvaluatedAt        time.Time
}

// PatientQuota describes the patient cap against the current count.
type PatientQuota struct {
	Limit PatientLimit
	// Current is the number of patients the account holds.
	Current int
	// Remaining is the number of patients that can still be added; -1 when unlimited.
	Remaining int
	CanAdd    bool
	NearLimit bool
	Unlimited bool
}

// Evaluator answers gating questions over a subscription snapshot. It holds
// no mutable state; every answer depends only on its inputs and the clock.
type Evaluator struct {
	catalog *Catalog
	clock   Clock
}

// NewEvaluator creates an evaluator. A nil clock falls back to SystemClock.
func NewEvaluator(catalog *Catalog, clock Clock) *Evaluator {
	if clock == nil {
		clock = SystemClock
	}
	return &Evaluator{catalog: catalog, clock: clock}
}

func (e *Evaluator) Catalog() *Catalog { return e.catalog }

func (e *Evaluator) Now() time.Time { return e.clock() }

// TrialDaysRemainingAt returns the whole trial days left at now, floored and never negative.
// A clock behind the trial start counts as zero elapsed days.
func TrialDaysRemainingAt(sub Subscription, now time.Time) int {
	if sub.Status != StatusTrial || sub.TrialStartedAt == nil {
		return 0
	}
	elapsed := now.Sub(*sub.TrialStartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := TrialLengthDays - int(elapsed/(24*time.Hour))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TrialDaysRemaining returns the trial days left at the evaluator's clock.
func (e *Evaluator) TrialDaysRemaining(sub Subscription) int {
	return TrialDaysRemainingAt(sub, e.clock())
}

// IsOnTrial requires both the trial status and at least one day left, so a
// lapsed trial the backend has not yet marked expired is not treated as live.
func (e *Evaluator) IsOnTrial(sub Subscription) bool {
	return isOnTrialAt(sub, e.clock())
}

func isOnTrialAt(sub Subscription, now time.Time) bool {
	return sub.Status == StatusTrial && TrialDaysRemainingAt(sub, now) > 0
}

// EffectivePlan returns the plan granting access now: the subscribed plan while
// active or on a live trial, the free plan otherwise.
func (e *Evaluator) EffectivePlan(sub Subscription) (Plan, error) {
	return e.effectivePlanAt(sub, e.clock())
}

func (e *Evaluator) effectivePlanAt(sub Subscription, now time.Time) (Plan, error) {
	plan, err := e.catalog.GetPlan(sub.PlanType)
	if err != nil {
		return Plan{}, err
	}
	switch {
	case sub.Status == StatusActive:
		return plan, nil
	case isOnTrialAt(sub, now):
		return plan, nil
	}
	return e.catalog.GetPlan(PlanFree)
}

// IsFeatureBlocked reports whether the effective plan denies the feature.
// Unknown feature keys are an error, never a default answer.
func (e *Evaluator) IsFeatureBlocked(sub Subscription, feature Feature) (bool, error) {
	plan, err := e.EffectivePlan(sub)
	if err != nil {
		return false, err
	}
	allowed, ok := plan.Features[feature]
	if !ok {
		return false, errors.UnknownFeature("unknown feature %q", feature)
	}
	return !allowed, nil
}

// CanAddPatient reports whether one more patient fits. Holding exactly the
// limit means the next patient is refused.
func (e *Evaluator) CanAddPatient(sub Subscription, currentCount int) (bool, error) {
	plan, err := e.EffectivePlan(sub)
	if err != nil {
		return false, err
	}
	return canAdd(plan.PatientLimit, currentCount), nil
}

// IsNearPatientLimit reports the warning state: at most NearPatientLimitMargin
// slots left but not yet at the limit.
func (e *Evaluator) IsNearPatientLimit(sub Subscription, currentCount int) (bool, error) {
	plan, err := e.EffectivePlan(sub)
	if err != nil {
		return false, err
	}
	return nearLimit(plan.PatientLimit, currentCount), nil
}

// PatientQuota combines the patient checks into one snapshot.
func (e *Evaluator) PatientQuota(sub Subscription, currentCount int) (PatientQuota, error) {
	plan, err := e.EffectivePlan(sub)
	if err != nil {
		return PatientQuota{}, err
	}
	return quotaFor(plan.PatientLimit, currentCount), nil
}

func canAdd(limit PatientLimit, count int) bool {
	return limit.IsUnlimited() || count < int(limit)
}

func nearLimit(limit PatientLimit, count int) bool {
	if limit.IsUnlimited() || count >= int(limit) {
		return false
	}
	return int(limit)-count <= NearPatientLimitMargin
}

func quotaFor(limit PatientLimit, count int) PatientQuota {
	q := PatientQuota{
		Limit:     limit,
		Current:   count,
		Remaining: -1,
		CanAdd:    canAdd(limit, count),
		NearLimit: nearLimit(limit, count),
		Unlimited: limit.IsUnlimited(),
	}
	if !limit.IsUnlimited() {
		q.Remaining = int(limit) - count
		if q.Remaining < 0 {
			q.Remaining = 0
		}
	}
	return q
}

// Resolve validates the record and returns its full entitlement at the evaluator's clock.
func (e *Evaluator) Resolve(sub Subscription) (Entitlement, error) {
	if err := sub.Validate(e.catalog); err != nil {
		return Entitlement{}, err
	}
	now := e.clock()
	plan, err := e.effectivePlanAt(sub, now)
	if err != nil {
		return Entitlement{}, err
	}

	ent := Entitlement{
		AccountID:          sub.AccountID,
		PlanType:           sub.PlanType,
		EffectivePlan:      plan.ID,
		Status:             sub.Status,
		OnTrial:            isOnTrialAt(sub, now),
		TrialDaysRemaining: TrialDaysRemainingAt(sub, now),
		PatientLimit:       plan.PatientLimit,
		Features:           plan.Features,
		EvaluatedAt:        now,
	}
	if sub.Status == StatusTrial && !ent.OnTrial {
		ent.Status = StatusExpired
	}
	if ent.OnTrial {
		ent.TrialEndsAt = sub.TrialEndsAt()
	}
	return ent, nil
}

// VerifyReportedTrialDays returns the trial days left now and whether the
// backend-precomputed value matches the days left when the record was
// written. A record without a reported value agrees.
func (e *Evaluator) VerifyReportedTrialDays(sub Subscription) (int, bool) {
	days := e.TrialDaysRemaining(sub)
	if sub.ReportedTrialDaysRemaining == nil {
		return days, true
	}
	return days, *sub.ReportedTrialDaysRemaining == TrialDaysRemainingAt(sub, sub.UpdatedAt)
}
