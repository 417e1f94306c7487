package errors

import (
	"fmt"
	"net/http"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// Entitlement service error codes.
// Format: SSMMEE (6 digits), SS=14 is the entitlement service.
// Modules:
//   01: plan catalog
//   02: subscription lifecycle
//   03: request validation

// Plan catalog (140100-140199)
const (
	// ErrCodeUnknownPlan plan id outside the catalog
	ErrCodeUnknownPlan = 140101
	// ErrCodeUnknownFeature feature key outside the closed feature set
	ErrCodeUnknownFeature = 140102
)

// Subscription lifecycle (140200-140299)
const (
	// ErrCodeInvalidTransition transition not allowed from the current state
	ErrCodeInvalidTransition = 140201
	// ErrCodeInvalidSubscription record breaks a subscription invariant
	ErrCodeInvalidSubscription = 140202
	// ErrCodeSubscriptionNotFound no subscription record for the account
	ErrCodeSubscriptionNotFound = 140203
	// ErrCodeSubscriptionBusy another change to the account holds its lock
	ErrCodeSubscriptionBusy = 140204
)

// Request validation (140300-140399)
const (
	// ErrCodeInvalidArgument malformed request parameter
	ErrCodeInvalidArgument = 140301
)

const (
	ReasonUnknownPlan          = "UNKNOWN_PLAN"
	ReasonUnknownFeature       = "UNKNOWN_FEATURE"
	ReasonInvalidTransition    = "INVALID_TRANSITION"
	ReasonInvalidSubscription  = "INVALID_SUBSCRIPTION"
	ReasonSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ReasonSubscriptionBusy     = "SUBSCRIPTION_BUSY"
	ReasonInvalidArgument      = "INVALID_ARGUMENT"
)

// UnknownPlan is returned when a plan id is not in the catalog.
func UnknownPlan(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeUnknownPlan, ReasonUnknownPlan, fmt.Sprintf(format, args...))
}

// UnknownFeature is returned when a feature key is not in the closed feature set.
func UnknownFeature(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeUnknownFeature, ReasonUnknownFeature, fmt.Sprintf(format, args...))
}

// InvalidTransition is returned when a lifecycle operation is illegal for the current record.
func InvalidTransition(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidTransition, ReasonInvalidTransition, fmt.Sprintf(format, args...))
}

// InvalidSubscription is returned when a record violates a subscription invariant.
func InvalidSubscription(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidSubscription, ReasonInvalidSubscription, fmt.Sprintf(format, args...))
}

func SubscriptionNotFound(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeSubscriptionNotFound, ReasonSubscriptionNotFound, fmt.Sprintf(format, args...))
}

// SubscriptionBusy is returned when the account lock stays held by another change.
func SubscriptionBusy(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeSubscriptionBusy, ReasonSubscriptionBusy, fmt.Sprintf(format, args...))
}

func InvalidArgument(format string, args ...interface{}) *kerrors.Error {
	return kerrors.New(ErrCodeInvalidArgument, ReasonInvalidArgument, fmt.Sprintf(format, args...))
}

func IsUnknownPlan(err error) bool    { return is(err, ErrCodeUnknownPlan, ReasonUnknownPlan) }
func IsUnknownFeature(err error) bool { return is(err, ErrCodeUnknownFeature, ReasonUnknownFeature) }
func IsInvalidTransition(err error) bool {
	return is(err, ErrCodeInvalidTransition, ReasonInvalidTransition)
}
func IsInvalidSubscription(err error) bool {
	return is(err, ErrCodeInvalidSubscription, ReasonInvalidSubscription)
}
func IsSubscriptionNotFound(err error) bool {
	return is(err, ErrCodeSubscriptionNotFound, ReasonSubscriptionNotFound)
}
func IsSubscriptionBusy(err error) bool {
	return is(err, ErrCodeSubscriptionBusy, ReasonSubscriptionBusy)
}
func IsInvalidArgument(err error) bool { return is(err, ErrCodeInvalidArgument, ReasonInvalidArgument) }

func is(err error, code int, reason string) bool {
	if err == nil {
		return false
	}
	e := kerrors.FromError(err)
	return e.Code == int32(code) && e.Reason == reason
}

// HTTPStatus maps a business error code to the HTTP status returned to callers.
// Codes already in the HTTP range pass through unchanged.
func HTTPStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	switch code {
	case ErrCodeUnknownPlan, ErrCodeUnknownFeature, ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeInvalidTransition, ErrCodeSubscriptionBusy:
		return http.StatusConflict
	case ErrCodeInvalidSubscription:
		return http.StatusUnprocessableEntity
	case ErrCodeSubscriptionNotFound:
		return http.StatusNotFound
	}
	if code >= 140000 && code < 150000 {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
