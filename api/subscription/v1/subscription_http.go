package v1

import (
	context "context"

	http "github.com/go-kratos/kratos/v2/transport/http"
)

const OperationSubscriptionListPlans = "/subscription.v1.Subscription/ListPlans"
const OperationSubscriptionGetSubscription = "/subscription.v1.Subscription/GetSubscription"
const OperationSubscriptionGetEntitlements = "/subscription.v1.Subscription/GetEntitlements"
const OperationSubscriptionCheckFeature = "/subscription.v1.Subscription/CheckFeature"
const OperationSubscriptionCheckPatientQuota = "/subscription.v1.Subscription/CheckPatientQuota"
const OperationSubscriptionStartTrial = "/subscription.v1.Subscription/StartTrial"
const OperationSubscriptionUpgradePlan = "/subscription.v1.Subscription/UpgradePlan"
const OperationSubscriptionDowngradeToFree = "/subscription.v1.Subscription/DowngradeToFree"
const OperationSubscriptionCancelSubscription = "/subscription.v1.Subscription/CancelSubscription"
const OperationSubscriptionGetSubscriptionHistory = "/subscription.v1.Subscription/GetSubscriptionHistory"

type SubscriptionHTTPServer interface {
	ListPlans(context.Context, *ListPlansRequest) (*ListPlansReply, error)
	GetSubscription(context.Context, *GetSubscriptionRequest) (*GetSubscriptionReply, error)
	GetEntitlements(context.Context, *GetEntitlementsRequest) (*GetEntitlementsReply, error)
	CheckFeature(context.Context, *CheckFeatureRequest) (*CheckFeatureReply, error)
	CheckPatientQuota(context.Context, *CheckPatientQuotaRequest) (*CheckPatientQuotaReply, error)
	StartTrial(context.Context, *StartTrialRequest) (*StartTrialReply, error)
	UpgradePlan(context.Context, *UpgradePlanRequest) (*UpgradePlanReply, error)
	DowngradeToFree(context.Context, *DowngradeToFreeRequest) (*DowngradeToFreeReply, error)
	CancelSubscription(context.Context, *CancelSubscriptionRequest) (*CancelSubscriptionReply, error)
	GetSubscriptionHistory(context.Context, *GetSubscriptionHistoryRequest) (*GetSubscriptionHistoryReply, error)
}

func RegisterSubscriptionHTTPServer(s *http.Server, srv SubscriptionHTTPServer) {
	r := s.Route("/")
	r.GET("/v1/plans", _Subscription_ListPlans0_HTTP_Handler(srv))
	r.GET("/v1/accounts/{account_id}/subscription", _Subscription_GetSubscription0_HTTP_Handler(srv))
	r.GET("/v1/accounts/{account_id}/entitlements", _Subscription_GetEntitlements0_HTTP_Handler(srv))
	r.GET("/v1/accounts/{account_id}/features/{feature}", _Subscription_CheckFeature0_HTTP_Handler(srv))
	r.GET("/v1/accounts/{account_id}/patients/quota", _Subscription_CheckPatientQuota0_HTTP_Handler(srv))
	r.POST("/v1/accounts/{account_id}/subscription/trial", _Subscription_StartTrial0_HTTP_Handler(srv))
	r.POST("/v1/accounts/{account_id}/subscription/upgrade", _Subscription_UpgradePlan0_HTTP_Handler(srv))
	r.POST("/v1/accounts/{account_id}/subscription/downgrade", _Subscription_DowngradeToFree0_HTTP_Handler(srv))
	r.POST("/v1/accounts/{account_id}/subscription/cancel", _Subscription_CancelSubscription0_HTTP_Handler(srv))
	r.GET("/v1/accounts/{account_id}/subscription/history", _Subscription_GetSubscriptionHistory0_HTTP_Handler(srv))
}

// handle binds the request, runs it through the server middleware chain and
// writes the reply. Body binding runs first so path variables win.
func handle[Req any, Reply any](operation string, body bool, call func(context.Context, *Req) (*Reply, error)) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Req
		if body {
			if err := ctx.Bind(&in); err != nil {
				return err
			}
		}
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*Reply)
		return ctx.Result(200, reply)
	}
}

func _Subscription_ListPlans0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionListPlans, false, srv.ListPlans)
}

func _Subscription_GetSubscription0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionGetSubscription, false, srv.GetSubscription)
}

func _Subscription_GetEntitlements0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionGetEntitlements, false, srv.GetEntitlements)
}

func _Subscription_CheckFeature0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionCheckFeature, false, srv.CheckFeature)
}

func _Subscription_CheckPatientQuota0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionCheckPatientQuota, false, srv.CheckPatientQuota)
}

func _Subscription_StartTrial0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionStartTrial, true, srv.StartTrial)
}

func _Subscription_UpgradePlan0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionUpgradePlan, true, srv.UpgradePlan)
}

func _Subscription_DowngradeToFree0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionDowngradeToFree, true, srv.DowngradeToFree)
}

func _Subscription_CancelSubscription0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionCancelSubscription, true, srv.CancelSubscription)
}

func _Subscription_GetSubscriptionHistory0_HTTP_Handler(srv SubscriptionHTTPServer) func(ctx http.Context) error {
	return handle(OperationSubscriptionGetSubscriptionHistory, false, srv.GetSubscriptionHistory)
}
