package errors

import (
	"fmt"
	"net/http"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
)

func TestConstructorsAndPredicates(t *testing.T) {
	tests := []struct {
		name   string
		err    *kerrors.Error
		is     func(error) bool
		code   int32
		reason string
		status int
	}{
		{"unknown_plan", UnknownPlan("unknown plan %q", "gold"), IsUnknownPlan, ErrCodeUnknownPlan, ReasonUnknownPlan, http.StatusBadRequest},
		{"unknown_feature", UnknownFeature("unknown feature %q", "x"), IsUnknownFeature, ErrCodeUnknownFeature, ReasonUnknownFeature, http.StatusBadRequest},
		{"invalid_transition", InvalidTransition("no"), IsInvalidTransition, ErrCodeInvalidTransition, ReasonInvalidTransition, http.StatusConflict},
		{"invalid_subscription", InvalidSubscription("bad"), IsInvalidSubscription, ErrCodeInvalidSubscription, ReasonInvalidSubscription, http.StatusUnprocessableEntity},
		{"not_found", SubscriptionNotFound("missing"), IsSubscriptionNotFound, ErrCodeSubscriptionNotFound, ReasonSubscriptionNotFound, http.StatusNotFound},
		{"busy", SubscriptionBusy("account %s is busy", "acc-1"), IsSubscriptionBusy, ErrCodeSubscriptionBusy, ReasonSubscriptionBusy, http.StatusConflict},
		{"invalid_argument", InvalidArgument("bad %s", "input"), IsInvalidArgument, ErrCodeInvalidArgument, ReasonInvalidArgument, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.reason, tt.err.Reason)
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)))
			assert.Equal(t, tt.status, HTTPStatus(int(tt.err.Code)))
		})
	}
}

func TestPredicates_RejectOtherErrors(t *testing.T) {
	assert.False(t, IsUnknownPlan(nil))
	assert.False(t, IsUnknownPlan(fmt.Errorf("plain")))
	assert.False(t, IsUnknownPlan(UnknownFeature("x")))
	assert.False(t, IsInvalidTransition(kerrors.New(ErrCodeInvalidTransition, "OTHER", "x")))
}

func TestMessageFormatting(t *testing.T) {
	assert.Equal(t, `unknown plan "gold"`, UnknownPlan("unknown plan %q", "gold").Message)
}

func TestHTTPStatus_Passthrough(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(401))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(149999))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(0))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(999999))
}
