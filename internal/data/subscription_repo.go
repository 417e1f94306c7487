package data

import (
	"context"
	stderrors "errors"
	"time"

	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/data/model"
	"clinicflow/subscription-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// subscriptionRepo subscription record repository
type subscriptionRepo struct {
	data *Data
	log  *log.Helper
}

// NewSubscriptionRepo creates the subscription repository
func NewSubscriptionRepo(data *Data, logger log.Logger) biz.SubscriptionRepo {
	return &subscriptionRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetSubscription returns the account's record, nil when there is none
func (r *subscriptionRepo) GetSubscription(ctx context.Context, accountID string) (*biz.Subscription, error) {
	var m model.AccountSubscription
	err := r.data.DB(ctx).Where("account_id = ?", accountID).First(&m).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get subscription for account %s: %v", accountID, err)
		return nil, err
	}
	return toBizSubscription(&m), nil
}

// CreateSubscription inserts a new record; a duplicate account id fails
func (r *subscriptionRepo) CreateSubscription(ctx context.Context, sub *biz.Subscription) error {
	m := toModelSubscription(sub)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to create subscription for account %s: %v", sub.AccountID, err)
		return err
	}
	return nil
}

// UpdateSubscription writes next while the stored plan and status still match
// prev; a record changed in between is left alone and reported as a conflict
func (r *subscriptionRepo) UpdateSubscription(ctx context.Context, prev, next *biz.Subscription) error {
	m := toModelSubscription(next)
	res := r.data.DB(ctx).Model(&model.AccountSubscription{}).
		Where("account_id = ? AND plan_type = ? AND status = ?", prev.AccountID, string(prev.PlanType), string(prev.Status)).
		Updates(map[string]interface{}{
			"plan_type":            m.PlanType,
			"status":               m.Status,
			"trial_started_at":     m.TrialStartedAt,
			"trial_days_remaining": m.TrialDaysRemaining,
			"updated_at":           m.UpdatedAt,
		})
	if res.Error != nil {
		r.log.Errorf("Failed to update subscription for account %s: %v", next.AccountID, res.Error)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.InvalidTransition("subscription for account %s changed from %s/%s concurrently",
			prev.AccountID, prev.PlanType, prev.Status)
	}
	return nil
}

// ListLapsedTrials lists trial records anchored at or before startedBefore,
// keyset-paged on (trial_started_at, account_id)
func (r *subscriptionRepo) ListLapsedTrials(ctx context.Context, startedBefore time.Time, after *biz.TrialCursor, limit int) ([]*biz.Subscription, error) {
	query := r.data.DB(ctx).
		Where("status = ? AND trial_started_at <= ?", string(biz.StatusTrial), startedBefore)
	if after != nil {
		query = query.Where("(trial_started_at > ? OR (trial_started_at = ? AND account_id > ?))",
			after.TrialStartedAt, after.TrialStartedAt, after.AccountID)
	}

	var models []model.AccountSubscription
	if err := query.
		Order("trial_started_at ASC, account_id ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list lapsed trials: %v", err)
		return nil, err
	}
	return toBizSubscriptions(models), nil
}

// ListTrialsStartedBetween lists trial records anchored in (after, before]
func (r *subscriptionRepo) ListTrialsStartedBetween(ctx context.Context, after, before time.Time, limit int) ([]*biz.Subscription, error) {
	var models []model.AccountSubscription
	if err := r.data.DB(ctx).
		Where("status = ? AND trial_started_at > ? AND trial_started_at <= ?", string(biz.StatusTrial), after, before).
		Order("trial_started_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to list trials started between %s and %s: %v", after, before, err)
		return nil, err
	}
	return toBizSubscriptions(models), nil
}

func toBizSubscription(m *model.AccountSubscription) *biz.Subscription {
	return &biz.Subscription{
		AccountID:                  m.AccountID,
		PlanType:                   biz.PlanID(m.PlanType),
		Status:                     biz.Status(m.Status),
		TrialStartedAt:             utcPtr(m.TrialStartedAt),
		ReportedTrialDaysRemaining: m.TrialDaysRemaining,
		CreatedAt:                  m.CreatedAt.UTC(),
		UpdatedAt:                  m.UpdatedAt.UTC(),
	}
}

func toBizSubscriptions(models []model.AccountSubscription) []*biz.Subscription {
	items := make([]*biz.Subscription, len(models))
	for i := range models {
		items[i] = toBizSubscription(&models[i])
	}
	return items
}

func toModelSubscription(sub *biz.Subscription) *model.AccountSubscription {
	return &model.AccountSubscription{
		AccountID:          sub.AccountID,
		PlanType:           string(sub.PlanType),
		Status:             string(sub.Status),
		TrialStartedAt:     sub.TrialStartedAt,
		TrialDaysRemaining: sub.ReportedTrialDaysRemaining,
		CreatedAt:          sub.CreatedAt,
		UpdatedAt:          sub.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
