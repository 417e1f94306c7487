// Package v1 holds the JSON contract of the subscription service.
package v1

import (
	"strings"

	"clinicflow/subscription-service/internal/errors"
)

type Plan struct {
	Id                string          `json:"id"`
	Name              string          `json:"name"`
	Tier              int32           `json:"tier"`
	MonthlyPrice      string          `json:"monthly_price"`
	Currency          string          `json:"currency"`
	PatientLimit      int32           `json:"patient_limit"`
	UnlimitedPatients bool            `json:"unlimited_patients"`
	Features          map[string]bool `json:"features"`
}

type Subscription struct {
	AccountId          string `json:"account_id"`
	PlanType           string `json:"plan_type"`
	Status             string `json:"status"`
	TrialStartedAt     int64  `json:"trial_started_at,omitempty"`
	TrialDaysRemaining int32  `json:"trial_days_remaining"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}

type PatientQuota struct {
	Limit     int32 `json:"limit"`
	Current   int32 `json:"current"`
	Remaining int32 `json:"remaining"`
	CanAdd    bool  `json:"can_add"`
	NearLimit bool  `json:"near_limit"`
	Unlimited bool  `json:"unlimited"`
}

type ListPlansRequest struct{}

type ListPlansReply struct {
	Plans []*Plan `json:"plans"`
}

type GetSubscriptionRequest struct {
	AccountId string `json:"account_id"`
}

func (r *GetSubscriptionRequest) Validate() error { return validateAccountID(r.AccountId) }

type GetSubscriptionReply struct {
	Subscription *Subscription `json:"subscription"`
}

type GetEntitlementsRequest struct {
	AccountId string `json:"account_id"`
}

func (r *GetEntitlementsRequest) Validate() error { return validateAccountID(r.AccountId) }

type GetEntitlementsReply struct {
	AccountId          string          `json:"account_id"`
	PlanType           string          `json:"plan_type"`
	EffectivePlan      string          `json:"effective_plan"`
	Status             string          `json:"status"`
	OnTrial            bool            `json:"on_trial"`
	TrialDaysRemaining int32           `json:"trial_days_remaining"`
	TrialEndsAt        int64           `json:"trial_ends_at,omitempty"`
	PatientLimit       int32           `json:"patient_limit"`
	UnlimitedPatients  bool            `json:"unlimited_patients"`
	Features           map[string]bool `json:"features"`
	PatientQuota       *PatientQuota   `json:"patient_quota"`
	EvaluatedAt        int64           `json:"evaluated_at"`
}

type CheckFeatureRequest struct {
	AccountId string `json:"account_id"`
	Feature   string `json:"feature"`
}

func (r *CheckFeatureRequest) Validate() error {
	if err := validateAccountID(r.AccountId); err != nil {
		return err
	}
	if strings.TrimSpace(r.Feature) == "" {
		return errors.InvalidArgument("feature is required")
	}
	return nil
}

type CheckFeatureReply struct {
	Feature       string `json:"feature"`
	Blocked       bool   `json:"blocked"`
	EffectivePlan string `json:"effective_plan"`
	UpgradePlan   string `json:"upgrade_plan,omitempty"`
}

type CheckPatientQuotaRequest struct {
	AccountId string `json:"account_id"`
}

func (r *CheckPatientQuotaRequest) Validate() error { return validateAccountID(r.AccountId) }

type CheckPatientQuotaReply struct {
	Quota *PatientQuota `json:"quota"`
}

type StartTrialRequest struct {
	AccountId string `json:"account_id"`
	PlanId    string `json:"plan_id"`
}

func (r *StartTrialRequest) Validate() error { return validatePlanRequest(r.AccountId, r.PlanId) }

type StartTrialReply struct {
	Subscription *Subscription `json:"subscription"`
}

type UpgradePlanRequest struct {
	AccountId string `json:"account_id"`
	PlanId    string `json:"plan_id"`
}

func (r *UpgradePlanRequest) Validate() error { return validatePlanRequest(r.AccountId, r.PlanId) }

type UpgradePlanReply struct {
	Subscription *Subscription `json:"subscription"`
}

type DowngradeToFreeRequest struct {
	AccountId string `json:"account_id"`
}

func (r *DowngradeToFreeRequest) Validate() error { return validateAccountID(r.AccountId) }

type DowngradeToFreeReply struct {
	Subscription      *Subscription `json:"subscription"`
	PatientCount      int32         `json:"patient_count"`
	PatientLimit      int32         `json:"patient_limit"`
	PatientsOverLimit int32         `json:"patients_over_limit"`
}

type CancelSubscriptionRequest struct {
	AccountId string `json:"account_id"`
	Reason    string `json:"reason"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	if err := validateAccountID(r.AccountId); err != nil {
		return err
	}
	if len(r.Reason) > 255 {
		return errors.InvalidArgument("reason must be at most 255 characters")
	}
	return nil
}

type CancelSubscriptionReply struct {
	Subscription *Subscription `json:"subscription"`
}

type GetSubscriptionHistoryRequest struct {
	AccountId string `json:"account_id"`
	Page      int32  `json:"page"`
	PageSize  int32  `json:"page_size"`
}

func (r *GetSubscriptionHistoryRequest) Validate() error { return validateAccountID(r.AccountId) }

type SubscriptionHistoryItem struct {
	Id         uint64 `json:"id"`
	FromPlan   string `json:"from_plan,omitempty"`
	ToPlan     string `json:"to_plan"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

type GetSubscriptionHistoryReply struct {
	Items    []*SubscriptionHistoryItem `json:"items"`
	Total    int32                      `json:"total"`
	Page     int32                      `json:"page"`
	PageSize int32                      `json:"page_size"`
}

func validateAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return errors.InvalidArgument("account_id is required")
	}
	if len(accountID) > 64 {
		return errors.InvalidArgument("account_id must be at most 64 characters")
	}
	return nil
}

func validatePlanRequest(accountID, planID string) error {
	if err := validateAccountID(accountID); err != nil {
		return err
	}
	if strings.TrimSpace(planID) == "" {
		return errors.InvalidArgument("plan_id is required")
	}
	return nil
}
