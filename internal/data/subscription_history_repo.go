package data

import (
	"context"

	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// historyRepo subscription history repository
type historyRepo struct {
	data *Data
	log  *log.Helper
}

// NewSubscriptionHistoryRepo creates the subscription history repository
func NewSubscriptionHistoryRepo(data *Data, logger log.Logger) biz.SubscriptionHistoryRepo {
	return &historyRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// AddSubscriptionHistory appends a history row
func (r *historyRepo) AddSubscriptionHistory(ctx context.Context, history *biz.SubscriptionHistory) error {
	m := &model.SubscriptionHistory{
		AccountID:  history.AccountID,
		FromPlan:   string(history.FromPlan),
		ToPlan:     string(history.ToPlan),
		FromStatus: string(history.FromStatus),
		ToStatus:   string(history.ToStatus),
		Action:     history.Action,
		Reason:     history.Reason,
		CreatedAt:  history.CreatedAt,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to add subscription history for account %s: %v", history.AccountID, err)
		return err
	}
	history.SubscriptionHistoryID = m.SubscriptionHistoryID
	return nil
}

// GetSubscriptionHistory returns one page of the account's history, newest first
func (r *historyRepo) GetSubscriptionHistory(ctx context.Context, accountID string, page, pageSize int) ([]*biz.SubscriptionHistory, int, error) {
	var models []model.SubscriptionHistory
	var total int64

	if err := r.data.DB(ctx).Model(&model.SubscriptionHistory{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count subscription history for account %s: %v", accountID, err)
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := r.data.DB(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, subscription_history_id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to get subscription history for account %s: %v", accountID, err)
		return nil, 0, err
	}

	items := make([]*biz.SubscriptionHistory, len(models))
	for i, m := range models {
		items[i] = &biz.SubscriptionHistory{
			SubscriptionHistoryID: m.SubscriptionHistoryID,
			AccountID:             m.AccountID,
			FromPlan:              biz.PlanID(m.FromPlan),
			ToPlan:                biz.PlanID(m.ToPlan),
			FromStatus:            biz.Status(m.FromStatus),
			ToStatus:              biz.Status(m.ToStatus),
			Action:                m.Action,
			Reason:                m.Reason,
			CreatedAt:             m.CreatedAt.UTC(),
		}
	}

	return items, int(total), nil
}

// HasAction reports whether the account's history holds the action
func (r *historyRepo) HasAction(ctx context.Context, accountID, action string) (bool, error) {
	var count int64
	if err := r.data.DB(ctx).Model(&model.SubscriptionHistory{}).
		Where("account_id = ? AND action = ?", accountID, action).
		Count(&count).Error; err != nil {
		r.log.Errorf("Failed to look up %s history for account %s: %v", action, accountID, err)
		return false, err
	}
	return count > 0, nil
}
