package auth

import (
	"context"

	"clinicflow/subscription-service/internal/constants"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/uuid"
)

type contextKey string

const (
	// AccountIDKey context key of the calling clinic account
	AccountIDKey contextKey = "account_id"
	// UserRoleKey context key of the caller's role
	UserRoleKey contextKey = "user_role"
	// RequestIDKey context key of the request id
	RequestIDKey contextKey = "request_id"
)

// Role caller role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// WithAccountID returns a context carrying the caller's account id and role.
func WithAccountID(ctx context.Context, accountID string, role Role) context.Context {
	ctx = context.WithValue(ctx, AccountIDKey, accountID)
	return context.WithValue(ctx, UserRoleKey, role)
}

// GetAccountIDFromContext returns the caller's account id
func GetAccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(AccountIDKey).(string)
	return accountID, ok && accountID != ""
}

// GetRoleFromContext returns the caller's role
func GetRoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(Role)
	return role, ok
}

// GetRequestIDFromContext returns the request id set by Middleware
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// IsAdmin reports whether the caller is an administrator
func IsAdmin(ctx context.Context) bool {
	role, ok := GetRoleFromContext(ctx)
	return ok && role == RoleAdmin
}

// CheckOwnership checks that the caller may act on the account
func CheckOwnership(ctx context.Context, accountID string) error {
	currentID, ok := GetAccountIDFromContext(ctx)
	if !ok {
		return errors.Unauthorized("UNAUTHORIZED", "authentication required")
	}

	// admins act on every account
	if IsAdmin(ctx) {
		return nil
	}

	if currentID != accountID {
		return errors.Forbidden("FORBIDDEN", "permission denied: you can only access your own account")
	}

	return nil
}

// Middleware reads the caller identity the gateway forwards in headers.
// A missing request id is generated so every log line can be correlated.
func Middleware() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return handler(ctx, req)
			}
			header := tr.RequestHeader()

			if accountID := header.Get(constants.HeaderAccountID); accountID != "" {
				role := RoleUser
				if Role(header.Get(constants.HeaderUserRole)) == RoleAdmin {
					role = RoleAdmin
				}
				ctx = WithAccountID(ctx, accountID, role)
			}

			requestID := header.Get(constants.HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = context.WithValue(ctx, RequestIDKey, requestID)
			tr.ReplyHeader().Set(constants.HeaderRequestID, requestID)

			return handler(ctx, req)
		}
	}
}
