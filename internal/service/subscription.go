package service

import (
	"context"

	pb "clinicflow/subscription-service/api/subscription/v1"
	"clinicflow/subscription-service/internal/auth"
	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/constants"
)

// SubscriptionService exposes the subscription usecase to guard consumers
type SubscriptionService struct {
	uc        *biz.SubscriptionUsecase
	evaluator *biz.Evaluator
}

// NewSubscriptionService creates the subscription service
func NewSubscriptionService(uc *biz.SubscriptionUsecase, evaluator *biz.Evaluator) *SubscriptionService {
	return &SubscriptionService{uc: uc, evaluator: evaluator}
}

var _ pb.SubscriptionHTTPServer = (*SubscriptionService)(nil)

// ListPlans returns the plan catalog; no account is needed
func (s *SubscriptionService) ListPlans(ctx context.Context, req *pb.ListPlansRequest) (*pb.ListPlansReply, error) {
	plans := s.uc.ListPlans(ctx)
	pbPlans := make([]*pb.Plan, len(plans))
	for i, p := range plans {
		pbPlans[i] = toPlan(p)
	}
	return &pb.ListPlansReply{Plans: pbPlans}, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, req *pb.GetSubscriptionRequest) (*pb.GetSubscriptionReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	sub, err := s.uc.GetSubscription(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}
	return &pb.GetSubscriptionReply{Subscription: s.toSubscription(sub)}, nil
}

// GetEntitlements returns the resolved entitlement with the patient quota
func (s *SubscriptionService) GetEntitlements(ctx context.Context, req *pb.GetEntitlementsRequest) (*pb.GetEntitlementsReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	ae, err := s.uc.GetEntitlements(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}

	ent := ae.Entitlement
	reply := &pb.GetEntitlementsReply{
		AccountId:          ent.AccountID,
		PlanType:           string(ent.PlanType),
		EffectivePlan:      string(ent.EffectivePlan),
		Status:             string(ent.Status),
		OnTrial:            ent.OnTrial,
		TrialDaysRemaining: int32(ent.TrialDaysRemaining),
		PatientLimit:       int32(ent.PatientLimit),
		UnlimitedPatients:  ent.PatientLimit.IsUnlimited(),
		Features:           toFeatureMap(ent.Features),
		PatientQuota:       toPatientQuota(ae.Quota),
		EvaluatedAt:        ent.EvaluatedAt.Unix(),
	}
	if ent.TrialEndsAt != nil {
		reply.TrialEndsAt = ent.TrialEndsAt.Unix()
	}
	return reply, nil
}

func (s *SubscriptionService) CheckFeature(ctx context.Context, req *pb.CheckFeatureRequest) (*pb.CheckFeatureReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	decision, err := s.uc.CheckFeature(ctx, req.AccountId, req.Feature)
	if err != nil {
		return nil, err
	}
	return &pb.CheckFeatureReply{
		Feature:       string(decision.Feature),
		Blocked:       decision.Blocked,
		EffectivePlan: string(decision.EffectivePlan),
		UpgradePlan:   string(decision.UpgradePlan),
	}, nil
}

func (s *SubscriptionService) CheckPatientQuota(ctx context.Context, req *pb.CheckPatientQuotaRequest) (*pb.CheckPatientQuotaReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	quota, err := s.uc.CheckPatientQuota(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}
	return &pb.CheckPatientQuotaReply{Quota: toPatientQuota(*quota)}, nil
}

func (s *SubscriptionService) StartTrial(ctx context.Context, req *pb.StartTrialRequest) (*pb.StartTrialReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	sub, err := s.uc.StartTrial(ctx, req.AccountId, req.PlanId)
	if err != nil {
		return nil, err
	}
	return &pb.StartTrialReply{Subscription: s.toSubscription(sub)}, nil
}

func (s *SubscriptionService) UpgradePlan(ctx context.Context, req *pb.UpgradePlanRequest) (*pb.UpgradePlanReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	sub, err := s.uc.UpgradePlan(ctx, req.AccountId, req.PlanId)
	if err != nil {
		return nil, err
	}
	return &pb.UpgradePlanReply{Subscription: s.toSubscription(sub)}, nil
}

// DowngradeToFree moves the account to the free plan and reports the patients above its cap
func (s *SubscriptionService) DowngradeToFree(ctx context.Context, req *pb.DowngradeToFreeRequest) (*pb.DowngradeToFreeReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	sub, report, err := s.uc.DowngradeToFree(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}
	return &pb.DowngradeToFreeReply{
		Subscription:      s.toSubscription(sub),
		PatientCount:      int32(report.PatientCount),
		PatientLimit:      int32(report.PatientLimit),
		PatientsOverLimit: int32(report.PatientsOverLimit),
	}, nil
}

func (s *SubscriptionService) CancelSubscription(ctx context.Context, req *pb.CancelSubscriptionRequest) (*pb.CancelSubscriptionReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	sub, err := s.uc.CancelSubscription(ctx, req.AccountId, req.Reason)
	if err != nil {
		return nil, err
	}
	return &pb.CancelSubscriptionReply{Subscription: s.toSubscription(sub)}, nil
}

// GetSubscriptionHistory returns one page of the account's history, newest first
func (s *SubscriptionService) GetSubscriptionHistory(ctx context.Context, req *pb.GetSubscriptionHistoryRequest) (*pb.GetSubscriptionHistoryReply, error) {
	if err := auth.CheckOwnership(ctx, req.AccountId); err != nil {
		return nil, err
	}
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > constants.MaxPageSize {
		pageSize = constants.DefaultPageSize
	}
	items, total, err := s.uc.GetSubscriptionHistory(ctx, req.AccountId, int(page), int(pageSize))
	if err != nil {
		return nil, err
	}

	pbItems := make([]*pb.SubscriptionHistoryItem, len(items))
	for i, h := range items {
		pbItems[i] = &pb.SubscriptionHistoryItem{
			Id:         h.SubscriptionHistoryID,
			FromPlan:   string(h.FromPlan),
			ToPlan:     string(h.ToPlan),
			FromStatus: string(h.FromStatus),
			ToStatus:   string(h.ToStatus),
			Action:     h.Action,
			Reason:     h.Reason,
			CreatedAt:  h.CreatedAt.Unix(),
		}
	}
	return &pb.GetSubscriptionHistoryReply{
		Items:    pbItems,
		Total:    int32(total),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// toSubscription reports trial days as computed now rather than the stored value.
func (s *SubscriptionService) toSubscription(sub *biz.Subscription) *pb.Subscription {
	out := &pb.Subscription{
		AccountId:          sub.AccountID,
		PlanType:           string(sub.PlanType),
		Status:             string(sub.Status),
		TrialDaysRemaining: int32(s.evaluator.TrialDaysRemaining(*sub)),
		CreatedAt:          sub.CreatedAt.Unix(),
		UpdatedAt:          sub.UpdatedAt.Unix(),
	}
	if sub.TrialStartedAt != nil {
		out.TrialStartedAt = sub.TrialStartedAt.Unix()
	}
	return out
}

func toPlan(p biz.Plan) *pb.Plan {
	return &pb.Plan{
		Id:                string(p.ID),
		Name:              p.Name,
		Tier:              int32(p.Tier),
		MonthlyPrice:      p.MonthlyPrice.StringFixed(2),
		Currency:          p.Currency,
		PatientLimit:      int32(p.PatientLimit),
		UnlimitedPatients: p.PatientLimit.IsUnlimited(),
		Features:          toFeatureMap(p.Features),
	}
}

func toFeatureMap(features map[biz.Feature]bool) map[string]bool {
	out := make(map[string]bool, len(biz.AllFeatures))
	for _, f := range biz.AllFeatures {
		out[string(f)] = features[f]
	}
	return out
}

func toPatientQuota(q biz.PatientQuota) *pb.PatientQuota {
	return &pb.PatientQuota{
		Limit:     int32(q.Limit),
		Current:   int32(q.Current),
		Remaining: int32(q.Remaining),
		CanAdd:    q.CanAdd,
		NearLimit: q.NearLimit,
		Unlimited: q.Unlimited,
	}
}
