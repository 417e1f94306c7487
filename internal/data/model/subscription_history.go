package model

import "time"

// SubscriptionHistory subscription history model
type SubscriptionHistory struct {
	SubscriptionHistoryID uint64    `gorm:"primaryKey;column:subscription_history_id;autoIncrement"`
	AccountID             string    `gorm:"column:account_id;type:varchar(64);not null;index:idx_account_action"`
	FromPlan              string    `gorm:"column:from_plan;type:varchar(32)"`
	ToPlan                string    `gorm:"column:to_plan;type:varchar(32);not null"`
	FromStatus            string    `gorm:"column:from_status;type:varchar(16)"`
	ToStatus              string    `gorm:"column:to_status;type:varchar(16);not null"`
	Action                string    `gorm:"column:action;type:varchar(32);not null;index:idx_account_action"` // created, trial_started, upgraded, downgraded, canceled, trial_expired
	Reason                string    `gorm:"column:reason;type:varchar(255)"`
	CreatedAt             time.Time `gorm:"column:created_at"`
}

func (SubscriptionHistory) TableName() string { return "subscription_history" }
