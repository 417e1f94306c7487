package model

import "time"

// AccountSubscription account subscription model. Patient limit and features
// are not columns: they are derived from plan_type through the plan catalog.
type AccountSubscription struct {
	AccountID          string     `gorm:"primaryKey;column:account_id;type:varchar(64)"`
	PlanType           string     `gorm:"column:plan_type;type:varchar(32);not null"`
	Status             string     `gorm:"column:status;type:varchar(16);not null;index:idx_status_trial"` // trial, active, expired, canceled
	TrialStartedAt     *time.Time `gorm:"column:trial_started_at;index:idx_status_trial"`
	TrialDaysRemaining *int       `gorm:"column:trial_days_remaining"` // precomputed at write time
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime:false"` // set by the transition clock
}

func (AccountSubscription) TableName() string { return "account_subscription" }
