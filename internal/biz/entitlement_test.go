package biz

import (
	"testing"
	"time"

	"clinicflow/subscription-service/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

func trialSub(plan PlanID, started time.Time) Subscription {
	return Subscription{
		AccountID:      "acc-1",
		PlanType:       plan,
		Status:         StatusTrial,
		TrialStartedAt: &started,
		CreatedAt:      started,
		UpdatedAt:      started,
	}
}

func activeSub(plan PlanID) Subscription {
	return Subscription{AccountID: "acc-1", PlanType: plan, Status: StatusActive, CreatedAt: testNow, UpdatedAt: testNow}
}

// daysAgo returns the instant the given number of days before testNow.
func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func TestTrialDaysRemainingAt(t *testing.T) {
	start := testNow
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "at_start", now: start, want: 7},
		{name: "just_under_one_day", now: start.Add(24*time.Hour - time.Second), want: 7},
		{name: "one_day", now: start.Add(24 * time.Hour), want: 6},
		{name: "four_and_a_half_days", now: start.Add(108 * time.Hour), want: 3},
		{name: "last_second", now: start.Add(7*24*time.Hour - time.Second), want: 1},
		{name: "exactly_seven_days", now: start.Add(7 * 24 * time.Hour), want: 0},
		{name: "long_after", now: start.Add(90 * 24 * time.Hour), want: 0},
		{name: "clock_before_start", now: start.Add(-48 * time.Hour), want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrialDaysRemainingAt(trialSub(PlanProfessional, start), tt.now))
		})
	}
}

func TestTrialDaysRemainingAt_NotOnTrial(t *testing.T) {
	assert.Equal(t, 0, TrialDaysRemainingAt(activeSub(PlanPremium), testNow))
	assert.Equal(t, 0, TrialDaysRemainingAt(Subscription{Status: StatusTrial, PlanType: PlanEssential}, testNow))
}

func TestTrialDaysRemaining_MonotonicAndFloored(t *testing.T) {
	sub := trialSub(PlanAdvanced, testNow)
	prev := TrialDaysRemainingAt(sub, testNow.Add(-24*time.Hour))
	for step := 0; step < 12*24; step++ {
		now := testNow.Add(time.Duration(step) * time.Hour)
		days := TrialDaysRemainingAt(sub, now)
		require.LessOrEqual(t, days, prev, "days went up at %s", now)
		require.GreaterOrEqual(t, days, 0)
		prev = days
	}
	assert.Equal(t, 0, prev)
}

func TestIsOnTrial_StaleTrialStatus(t *testing.T) {
	sub := trialSub(PlanPremium, daysAgo(8))
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))

	assert.Equal(t, StatusTrial, sub.Status)
	assert.Equal(t, 0, e.TrialDaysRemaining(sub))
	assert.False(t, e.IsOnTrial(sub))

	plan, err := e.EffectivePlan(sub)
	require.NoError(t, err)
	assert.Equal(t, PlanFree, plan.ID)

	blocked, err := e.IsFeatureBlocked(sub, FeatureReports)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestIsOnTrial_LiveTrial(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	sub := trialSub(PlanProfessional, daysAgo(4))

	assert.True(t, e.IsOnTrial(sub))
	assert.Equal(t, 3, e.TrialDaysRemaining(sub))
	assert.False(t, e.IsOnTrial(activeSub(PlanProfessional)))
}

func TestEffectivePlan(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	tests := []struct {
		name string
		sub  Subscription
		want PlanID
	}{
		{name: "active_paid", sub: activeSub(PlanAdvanced), want: PlanAdvanced},
		{name: "active_free", sub: activeSub(PlanFree), want: PlanFree},
		{name: "live_trial", sub: trialSub(PlanPremium, daysAgo(1)), want: PlanPremium},
		{name: "lapsed_trial", sub: trialSub(PlanPremium, daysAgo(7)), want: PlanFree},
		{name: "expired", sub: Subscription{AccountID: "a", PlanType: PlanEssential, Status: StatusExpired}, want: PlanFree},
		{name: "canceled", sub: Subscription{AccountID: "a", PlanType: PlanEssential, Status: StatusCanceled}, want: PlanFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := e.EffectivePlan(tt.sub)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.ID)
		})
	}
}

func TestIsFeatureBlocked_Matrix(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	tests := []struct {
		plan    PlanID
		feature Feature
		blocked bool
	}{
		{PlanAdvanced, FeatureAIAssistant, false},
		{PlanPremium, FeatureAIAssistant, false},
		{PlanEssential, FeatureAIAssistant, true},
		{PlanProfessional, FeatureAIAssistant, true},
		{PlanProfessional, FeatureWhatsAppScheduling, true},
		{PlanProfessional, FeatureWhatsAppView, false},
		{PlanEssential, FeatureWhatsAppView, true},
		{PlanFree, FeatureFiles, true},
		{PlanFree, FeatureReports, true},
		{PlanEssential, FeatureReports, false},
		{PlanAdvanced, FeaturePrioritySupport, true},
		{PlanPremium, FeaturePrioritySupport, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.plan)+"_"+string(tt.feature), func(t *testing.T) {
			blocked, err := e.IsFeatureBlocked(activeSub(tt.plan), tt.feature)
			require.NoError(t, err)
			assert.Equal(t, tt.blocked, blocked)
		})
	}
}

func TestIsFeatureBlocked_Errors(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))

	_, err := e.IsFeatureBlocked(activeSub(PlanPremium), "telepathy")
	assert.True(t, errors.IsUnknownFeature(err))

	_, err = e.IsFeatureBlocked(activeSub("gold"), FeatureFiles)
	assert.True(t, errors.IsUnknownPlan(err))
}

func TestCanAddPatient_Boundary(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	for _, p := range DefaultCatalog().ListPlans() {
		sub := activeSub(p.ID)
		if p.PatientLimit.IsUnlimited() {
			for _, count := range []int{0, 1, 500, 1_000_000} {
				ok, err := e.CanAddPatient(sub, count)
				require.NoError(t, err)
				assert.True(t, ok, "%s with %d patients", p.ID, count)
			}
			continue
		}

		limit := int(p.PatientLimit)
		ok, err := e.CanAddPatient(sub, limit)
		require.NoError(t, err)
		assert.False(t, ok, "%s at limit", p.ID)

		ok, err = e.CanAddPatient(sub, limit-1)
		require.NoError(t, err)
		assert.True(t, ok, "%s one below limit", p.ID)

		ok, err = e.CanAddPatient(sub, limit+3)
		require.NoError(t, err)
		assert.False(t, ok, "%s above limit", p.ID)
	}
}

func TestIsNearPatientLimit(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	tests := []struct {
		plan  PlanID
		count int
		near  bool
	}{
		{PlanFree, 0, false},
		{PlanFree, 2, false},
		{PlanFree, 3, true},
		{PlanFree, 4, true},
		{PlanFree, 5, false},
		{PlanEssential, 47, false},
		{PlanEssential, 48, true},
		{PlanPremium, 100000, false},
	}
	for _, tt := range tests {
		near, err := e.IsNearPatientLimit(activeSub(tt.plan), tt.count)
		require.NoError(t, err)
		assert.Equal(t, tt.near, near, "%s with %d patients", tt.plan, tt.count)
	}
}

func TestPatientQuota(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))

	q, err := e.PatientQuota(activeSub(PlanFree), 4)
	require.NoError(t, err)
	assert.Equal(t, PatientQuota{Limit: 5, Current: 4, Remaining: 1, CanAdd: true, NearLimit: true}, q)

	q, err = e.PatientQuota(activeSub(PlanFree), 9)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Remaining)
	assert.False(t, q.CanAdd)

	q, err = e.PatientQuota(activeSub(PlanPremium), 9)
	require.NoError(t, err)
	assert.Equal(t, PatientQuota{Limit: UnlimitedPatients, Current: 9, Remaining: -1, CanAdd: true, Unlimited: true}, q)
}

func TestResolve(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))

	live := trialSub(PlanAdvanced, daysAgo(2))
	ent, err := e.Resolve(live)
	require.NoError(t, err)
	assert.Equal(t, PlanAdvanced, ent.EffectivePlan)
	assert.Equal(t, StatusTrial, ent.Status)
	assert.True(t, ent.OnTrial)
	assert.Equal(t, 5, ent.TrialDaysRemaining)
	require.NotNil(t, ent.TrialEndsAt)
	assert.Equal(t, daysAgo(2).Add(7*24*time.Hour), *ent.TrialEndsAt)
	assert.Equal(t, PatientLimit(500), ent.PatientLimit)
	assert.True(t, ent.Features[FeatureAIAssistant])
	assert.Equal(t, testNow, ent.EvaluatedAt)

	lapsed := trialSub(PlanAdvanced, daysAgo(10))
	ent, err = e.Resolve(lapsed)
	require.NoError(t, err)
	assert.Equal(t, PlanAdvanced, ent.PlanType)
	assert.Equal(t, PlanFree, ent.EffectivePlan)
	assert.Equal(t, StatusExpired, ent.Status)
	assert.False(t, ent.OnTrial)
	assert.Nil(t, ent.TrialEndsAt)
	assert.Equal(t, PatientLimit(5), ent.PatientLimit)
	assert.False(t, ent.Features[FeatureAIAssistant])
}

func TestResolve_InvalidRecord(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	_, err := e.Resolve(Subscription{AccountID: "a", PlanType: PlanEssential, Status: StatusTrial})
	assert.True(t, errors.IsInvalidSubscription(err))
}

func TestVerifyReportedTrialDays(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), fixedClock(testNow))
	sub := trialSub(PlanEssential, daysAgo(3))

	days, ok := e.VerifyReportedTrialDays(sub)
	assert.Equal(t, 4, days)
	assert.True(t, ok)

	// written at trial start, the stored value stays 7 while the days run down
	sub.ReportedTrialDaysRemaining = intPtr(7)
	days, ok = e.VerifyReportedTrialDays(sub)
	assert.Equal(t, 4, days)
	assert.True(t, ok)

	sub.ReportedTrialDaysRemaining = intPtr(4)
	_, ok = e.VerifyReportedTrialDays(sub)
	assert.False(t, ok)

	sub.UpdatedAt = testNow
	_, ok = e.VerifyReportedTrialDays(sub)
	assert.True(t, ok)
}

func TestNewEvaluator_NilClockUsesSystemClock(t *testing.T) {
	e := NewEvaluator(DefaultCatalog(), nil)
	before := time.Now().Add(-time.Second)
	assert.True(t, e.Now().After(before))
}
