package biz

import (
	"context"
	"time"

	"clinicflow/subscription-service/internal/constants"
)

// SubscriptionHistory is one superseded-by row: every mutation of a
// subscription appends one entry, records are never deleted.
type SubscriptionHistory struct {
	SubscriptionHistoryID uint64
	AccountID             string
	FromPlan              PlanID
	ToPlan                PlanID
	FromStatus            Status
	ToStatus              Status
	Action                string // created, trial_started, upgraded, downgraded, canceled, trial_expired
	Reason                string
	CreatedAt             time.Time
}

// SubscriptionHistoryRepo subscription history repository
type SubscriptionHistoryRepo interface {
	AddSubscriptionHistory(ctx context.Context, history *SubscriptionHistory) error
	GetSubscriptionHistory(ctx context.Context, accountID string, page, pageSize int) ([]*SubscriptionHistory, int, error)
	HasAction(ctx context.Context, accountID, action string) (bool, error)
}

func newHistory(prev, next Subscription, action, reason string) *SubscriptionHistory {
	return &SubscriptionHistory{
		AccountID:  next.AccountID,
		FromPlan:   prev.PlanType,
		ToPlan:     next.PlanType,
		FromStatus: prev.Status,
		ToStatus:   next.Status,
		Action:     action,
		Reason:     reason,
		CreatedAt:  next.UpdatedAt,
	}
}

// GetSubscriptionHistory returns the account's history, newest first.
func (uc *SubscriptionUsecase) GetSubscriptionHistory(ctx context.Context, accountID string, page, pageSize int) ([]*SubscriptionHistory, int, error) {
	uc.log.Infof("GetSubscriptionHistory: accountID=%s, page=%d, pageSize=%d", accountID, page, pageSize)

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}

	items, total, err := uc.historyRepo.GetSubscriptionHistory(ctx, accountID, page, pageSize)
	if err != nil {
		uc.log.Errorf("Failed to get subscription history: %v", err)
		return nil, 0, err
	}

	uc.log.Infof("Retrieved %d history items for account %s", len(items), accountID)
	return items, total, nil
}
