package biz

import (
	"context"
	"fmt"
	"time"

	"clinicflow/subscription-service/internal/constants"
	"clinicflow/subscription-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

// SubscriptionRepo subscription record repository
type SubscriptionRepo interface {
	// GetSubscription returns nil, nil when the account has no record.
	GetSubscription(ctx context.Context, accountID string) (*Subscription, error)
	// CreateSubscription fails if the account already has a record.
	CreateSubscription(ctx context.Context, sub *Subscription) error
	// UpdateSubscription writes next only while the stored plan and status
	// still match prev; otherwise it fails with InvalidTransition.
	UpdateSubscription(ctx context.Context, prev, next *Subscription) error
	// ListLapsedTrials lists trial records anchored at or before startedBefore,
	// ordered by anchor then account id and starting after the cursor when set.
	ListLapsedTrials(ctx context.Context, startedBefore time.Time, after *TrialCursor, limit int) ([]*Subscription, error)
	// ListTrialsStartedBetween lists trial records anchored in (after, before].
	ListTrialsStartedBetween(ctx context.Context, after, before time.Time, limit int) ([]*Subscription, error)
}

// TrialCursor is the sweep position: the last record seen.
type TrialCursor struct {
	TrialStartedAt time.Time
	AccountID      string
}

// PatientCounter counts the patients an account holds. Patient records are
// owned by the records service; only the count is read here.
type PatientCounter interface {
	CountPatients(ctx context.Context, accountID string) (int, error)
}

// AccountEntitlement is the entitlement snapshot plus the live patient quota.
type AccountEntitlement struct {
	Subscription *Subscription
	Entitlement  Entitlement
	Quota        PatientQuota
}

// FeatureDecision is the answer to a single feature gate.
type FeatureDecision struct {
	Feature       Feature
	Blocked       bool
	EffectivePlan PlanID
	// UpgradePlan is the cheapest plan unlocking the feature when blocked.
	UpgradePlan PlanID
}

// DowngradeReport describes what a move to the free plan leaves above the cap.
// Existing patients beyond the new limit are reported, never removed.
type DowngradeReport struct {
	PatientCount      int
	PatientLimit      PatientLimit
	PatientsOverLimit int
}

// SubscriptionUsecase subscription business logic
type SubscriptionUsecase struct {
	subRepo     SubscriptionRepo
	historyRepo SubscriptionHistoryRepo
	patients    PatientCounter
	tx          Transaction
	evaluator   *Evaluator
	rs          *redsync.Redsync
	log         *log.Helper
}

// NewSubscriptionUsecase creates the subscription usecase
func NewSubscriptionUsecase(
	subRepo SubscriptionRepo,
	historyRepo SubscriptionHistoryRepo,
	patients PatientCounter,
	tx Transaction,
	evaluator *Evaluator,
	rs *redsync.Redsync,
	logger log.Logger,
) *SubscriptionUsecase {
	return &SubscriptionUsecase{
		subRepo:     subRepo,
		historyRepo: historyRepo,
		patients:    patients,
		tx:          tx,
		evaluator:   evaluator,
		rs:          rs,
		log:         log.NewHelper(logger),
	}
}

func (uc *SubscriptionUsecase) catalog() *Catalog { return uc.evaluator.Catalog() }

// ListPlans returns the plan catalog
func (uc *SubscriptionUsecase) ListPlans(ctx context.Context) []Plan {
	return uc.catalog().ListPlans()
}

// GetSubscription returns the account's record, creating the default
// free/active record the first time an account is seen.
func (uc *SubscriptionUsecase) GetSubscription(ctx context.Context, accountID string) (*Subscription, error) {
	if accountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}

	sub, err := uc.subRepo.GetSubscription(ctx, accountID)
	if err != nil {
		uc.log.Errorf("Failed to get subscription: %v", err)
		return nil, err
	}
	if sub != nil {
		if err := sub.Validate(uc.catalog()); err != nil {
			uc.log.Errorf("Stored subscription for account %s is invalid: %v", accountID, err)
			return nil, err
		}
		if days, ok := uc.evaluator.VerifyReportedTrialDays(*sub); !ok {
			uc.log.Warnf("Account %s reported %d trial days at %s, %d left now",
				accountID, *sub.ReportedTrialDaysRemaining, sub.UpdatedAt.Format(time.RFC3339), days)
		}
		return sub, nil
	}

	created := NewDefaultSubscription(accountID, uc.evaluator.Now())
	created.ReportedTrialDaysRemaining = intPtr(0)
	err = uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.CreateSubscription(ctx, &created); err != nil {
			return err
		}
		return uc.historyRepo.AddSubscriptionHistory(ctx, newHistory(Subscription{}, created, constants.ActionCreated, ""))
	})
	if err != nil {
		// a concurrent request may have created the record first
		if existing, getErr := uc.subRepo.GetSubscription(ctx, accountID); getErr == nil && existing != nil {
			return existing, nil
		}
		uc.log.Errorf("Failed to create default subscription for account %s: %v", accountID, err)
		return nil, err
	}

	uc.log.Infof("Created default subscription for account %s", accountID)
	return &created, nil
}

// GetEntitlements resolves the account's entitlement and patient quota.
func (uc *SubscriptionUsecase) GetEntitlements(ctx context.Context, accountID string) (*AccountEntitlement, error) {
	sub, err := uc.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ent, err := uc.evaluator.Resolve(*sub)
	if err != nil {
		return nil, err
	}
	count, err := uc.patients.CountPatients(ctx, accountID)
	if err != nil {
		uc.log.Errorf("Failed to count patients for account %s: %v", accountID, err)
		return nil, err
	}
	return &AccountEntitlement{
		Subscription: sub,
		Entitlement:  ent,
		Quota:        quotaFor(ent.PatientLimit, count),
	}, nil
}

// CheckFeature answers a feature gate for the account.
func (uc *SubscriptionUsecase) CheckFeature(ctx context.Context, accountID, rawFeature string) (*FeatureDecision, error) {
	feature, err := ParseFeature(rawFeature)
	if err != nil {
		return nil, err
	}
	sub, err := uc.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.evaluator.EffectivePlan(*sub)
	if err != nil {
		return nil, err
	}
	blocked, err := uc.evaluator.IsFeatureBlocked(*sub, feature)
	if err != nil {
		return nil, err
	}

	decision := &FeatureDecision{Feature: feature, Blocked: blocked, EffectivePlan: plan.ID}
	if blocked {
		if upgrade, ok := uc.catalog().CheapestPlanWith(feature); ok {
			decision.UpgradePlan = upgrade.ID
		}
	}
	return decision, nil
}

// CheckPatientQuota reports whether the account may create another patient.
func (uc *SubscriptionUsecase) CheckPatientQuota(ctx context.Context, accountID string) (*PatientQuota, error) {
	sub, err := uc.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}
	count, err := uc.patients.CountPatients(ctx, accountID)
	if err != nil {
		uc.log.Errorf("Failed to count patients for account %s: %v", accountID, err)
		return nil, err
	}
	quota, err := uc.evaluator.PatientQuota(*sub, count)
	if err != nil {
		return nil, err
	}
	if !quota.CanAdd {
		uc.log.Infof("Patient limit reached for account %s: %d/%d", accountID, count, quota.Limit)
	}
	return &quota, nil
}

// StartTrial starts a trial of a paid plan. Each account gets one trial.
func (uc *SubscriptionUsecase) StartTrial(ctx context.Context, accountID, rawPlan string) (*Subscription, error) {
	uc.log.Infof("StartTrial: accountID=%s, plan=%s", accountID, rawPlan)

	target, err := uc.catalog().ParsePlanID(rawPlan)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, accountID, "", func(ctx context.Context, sub Subscription, now time.Time) (Subscription, string, error) {
		used, err := uc.historyRepo.HasAction(ctx, accountID, constants.ActionTrialStarted)
		if err != nil {
			uc.log.Errorf("Failed to read trial history for account %s: %v", accountID, err)
			return Subscription{}, constants.ActionTrialStarted, err
		}
		if used {
			return Subscription{}, constants.ActionTrialStarted,
				errors.InvalidTransition("account %s has already used its trial", accountID)
		}
		next, err := StartTrial(uc.catalog(), sub, target, now)
		return next, constants.ActionTrialStarted, err
	})
}

// UpgradePlan moves the account onto an active subscription of the plan.
func (uc *SubscriptionUsecase) UpgradePlan(ctx context.Context, accountID, rawPlan string) (*Subscription, error) {
	uc.log.Infof("UpgradePlan: accountID=%s, plan=%s", accountID, rawPlan)

	target, err := uc.catalog().ParsePlanID(rawPlan)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, accountID, "", func(_ context.Context, sub Subscription, now time.Time) (Subscription, string, error) {
		next, err := UpgradePlan(uc.catalog(), sub, target, now)
		return next, uc.planChangeAction(sub.PlanType, target), err
	})
}

// DowngradeToFree returns the account to the free plan and reports how many
// existing patients are above the free cap.
func (uc *SubscriptionUsecase) DowngradeToFree(ctx context.Context, accountID string) (*Subscription, *DowngradeReport, error) {
	uc.log.Infof("DowngradeToFree: accountID=%s", accountID)

	sub, err := uc.mutate(ctx, accountID, "", func(_ context.Context, sub Subscription, now time.Time) (Subscription, string, error) {
		next, err := DowngradeToFree(uc.catalog(), sub, now)
		return next, constants.ActionDowngraded, err
	})
	if err != nil {
		return nil, nil, err
	}

	free, err := uc.catalog().GetPlan(PlanFree)
	if err != nil {
		return nil, nil, err
	}
	count, err := uc.patients.CountPatients(ctx, accountID)
	if err != nil {
		uc.log.Errorf("Failed to count patients for account %s: %v", accountID, err)
		return nil, nil, err
	}
	report := &DowngradeReport{PatientCount: count, PatientLimit: free.PatientLimit}
	if !free.PatientLimit.IsUnlimited() && count > int(free.PatientLimit) {
		report.PatientsOverLimit = count - int(free.PatientLimit)
		uc.log.Warnf("Account %s downgraded with %d patients over the free limit", accountID, report.PatientsOverLimit)
	}
	return sub, report, nil
}

// CancelSubscription cancels a paid subscription or running trial.
func (uc *SubscriptionUsecase) CancelSubscription(ctx context.Context, accountID, reason string) (*Subscription, error) {
	uc.log.Infof("CancelSubscription: accountID=%s, reason=%s", accountID, reason)

	return uc.mutate(ctx, accountID, reason, func(_ context.Context, sub Subscription, now time.Time) (Subscription, string, error) {
		next, err := CancelSubscription(uc.catalog(), sub, now)
		return next, constants.ActionCanceled, err
	})
}

func (uc *SubscriptionUsecase) planChangeAction(from, to PlanID) string {
	fromPlan, err := uc.catalog().GetPlan(from)
	if err != nil {
		return constants.ActionUpgraded
	}
	toPlan, err := uc.catalog().GetPlan(to)
	if err != nil {
		return constants.ActionUpgraded
	}
	if toPlan.Tier < fromPlan.Tier || !toPlan.IsPaid() {
		return constants.ActionDowngraded
	}
	return constants.ActionUpgraded
}

type transitionFunc func(ctx context.Context, sub Subscription, now time.Time) (next Subscription, action string, err error)

// mutate applies fn to the account's record under the account lock and
// persists the new record together with its history row. A rejected
// transition leaves storage untouched.
func (uc *SubscriptionUsecase) mutate(ctx context.Context, accountID, reason string, fn transitionFunc) (*Subscription, error) {
	if accountID == "" {
		return nil, errors.InvalidArgument("account id is required")
	}

	mutex, err := uc.lockAccount(ctx, accountID, constants.AccountLockRetries)
	if err != nil {
		uc.log.Warnf("Account %s is busy: %v", accountID, err)
		return nil, errors.SubscriptionBusy("account %s is being changed, retry later", accountID)
	}
	defer uc.unlockAccount(ctx, mutex, accountID)

	// read under the lock, so fn sees the latest committed record
	current, err := uc.GetSubscription(ctx, accountID)
	if err != nil {
		return nil, err
	}

	next, action, err := fn(ctx, *current, uc.evaluator.Now())
	if err != nil {
		uc.log.Warnf("Rejected %s for account %s: %v", action, accountID, err)
		return nil, err
	}

	if err := uc.persist(ctx, *current, next, action, reason); err != nil {
		return nil, err
	}
	uc.log.Infof("Subscription %s for account %s: %s/%s -> %s/%s",
		action, accountID, current.PlanType, current.Status, next.PlanType, next.Status)
	return &next, nil
}

func (uc *SubscriptionUsecase) lockAccount(ctx context.Context, accountID string, tries int) (*redsync.Mutex, error) {
	mutex := uc.rs.NewMutex(
		fmt.Sprintf(constants.AccountLockKeyFormat, accountID),
		redsync.WithExpiry(constants.AccountLockExpiration),
		redsync.WithTries(tries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}
	return mutex, nil
}

func (uc *SubscriptionUsecase) unlockAccount(ctx context.Context, mutex *redsync.Mutex, accountID string) {
	if _, err := mutex.UnlockContext(ctx); err != nil {
		uc.log.Warnf("Failed to unlock for account %s: %v", accountID, err)
	}
}

// persist writes next only if the stored record still matches prev, so a
// change that slipped past an expired lock is never overwritten.
func (uc *SubscriptionUsecase) persist(ctx context.Context, prev, next Subscription, action, reason string) error {
	err := uc.tx.Exec(ctx, func(ctx context.Context) error {
		if err := uc.subRepo.UpdateSubscription(ctx, &prev, &next); err != nil {
			return err
		}
		return uc.historyRepo.AddSubscriptionHistory(ctx, newHistory(prev, next, action, reason))
	})
	if err != nil {
		uc.log.Errorf("Failed to persist %s for account %s: %v", action, next.AccountID, err)
	}
	return err
}
