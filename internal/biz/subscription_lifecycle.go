package biz

import (
	"context"
	"time"

	"clinicflow/subscription-service/internal/constants"
	"clinicflow/subscription-service/internal/errors"
)

// TrialExpiryResult outcome of expiring one account's trial
type TrialExpiryResult struct {
	AccountID    string
	PlanType     PlanID
	Expired      bool
	ErrorMessage string
}

// ExpireLapsedTrials writes the expired status for trials whose days have run
// out. Evaluation already treats these trials as lapsed; the sweep brings the
// stored record in line.
func (uc *SubscriptionUsecase) ExpireLapsedTrials(ctx context.Context) ([]*TrialExpiryResult, error) {
	uc.log.Infof("Starting lapsed trial sweep")

	results := make([]*TrialExpiryResult, 0)
	cutoff := uc.evaluator.Now().Add(-TrialLengthDays * 24 * time.Hour)
	var cursor *TrialCursor
	for round := 0; round < constants.MaxSweepRounds; round++ {
		subs, err := uc.subRepo.ListLapsedTrials(ctx, cutoff, cursor, constants.SweepBatchSize)
		if err != nil {
			uc.log.Errorf("Failed to list lapsed trials: %v", err)
			return results, err
		}
		for _, sub := range subs {
			results = append(results, uc.expireTrial(ctx, sub))
		}
		if len(subs) < constants.SweepBatchSize {
			break
		}
		// failed records stay behind the cursor until the next run
		last := subs[len(subs)-1]
		cursor = &TrialCursor{TrialStartedAt: *last.TrialStartedAt, AccountID: last.AccountID}
	}

	expired := 0
	for _, r := range results {
		if r.Expired {
			expired++
		}
	}
	uc.log.Infof("Lapsed trial sweep completed: checked=%d, expired=%d", len(results), expired)
	return results, nil
}

func (uc *SubscriptionUsecase) expireTrial(ctx context.Context, sub *Subscription) *TrialExpiryResult {
	result := &TrialExpiryResult{AccountID: sub.AccountID, PlanType: sub.PlanType}

	// a busy lock means a user change or another worker owns the account
	mutex, err := uc.lockAccount(ctx, sub.AccountID, constants.SweepLockRetries)
	if err != nil {
		result.ErrorMessage = "failed to acquire lock or already processing"
		uc.log.Infof("Skipping trial expiry for account %s: lock busy", sub.AccountID)
		return result
	}
	defer uc.unlockAccount(ctx, mutex, sub.AccountID)

	// re-read under the lock, the account may have converted meanwhile
	current, err := uc.subRepo.GetSubscription(ctx, sub.AccountID)
	if err != nil {
		result.ErrorMessage = "failed to get current subscription: " + err.Error()
		return result
	}
	if current == nil {
		result.ErrorMessage = errors.SubscriptionNotFound("account %s has no subscription", sub.AccountID).Error()
		return result
	}
	if current.Status != StatusTrial {
		result.ErrorMessage = "no longer on trial"
		return result
	}

	next, err := ExpireTrial(uc.catalog(), *current, uc.evaluator.Now())
	if err != nil {
		result.ErrorMessage = err.Error()
		return result
	}
	if err := uc.persist(ctx, *current, next, constants.ActionTrialExpired, ""); err != nil {
		result.ErrorMessage = err.Error()
		return result
	}

	result.Expired = true
	uc.log.Infof("Expired trial for account %s (plan %s)", current.AccountID, current.PlanType)
	return result
}

// ListTrialsEndingSoon returns live trials with at most withinDays days left.
func (uc *SubscriptionUsecase) ListTrialsEndingSoon(ctx context.Context, withinDays int) ([]*Subscription, error) {
	if withinDays < 1 || withinDays > constants.MaxReminderDays {
		withinDays = constants.DefaultReminderDays
	}

	now := uc.evaluator.Now()
	day := 24 * time.Hour
	after := now.Add(-TrialLengthDays * day)
	before := now.Add(-time.Duration(TrialLengthDays-withinDays) * day)
	subs, err := uc.subRepo.ListTrialsStartedBetween(ctx, after, before, constants.SweepBatchSize)
	if err != nil {
		uc.log.Errorf("Failed to list trials ending soon: %v", err)
		return nil, err
	}

	ending := make([]*Subscription, 0, len(subs))
	for _, sub := range subs {
		days := uc.evaluator.TrialDaysRemaining(*sub)
		if days > 0 && days <= withinDays {
			ending = append(ending, sub)
		}
	}
	uc.log.Infof("Found %d trials ending within %d days", len(ending), withinDays)
	return ending, nil
}
