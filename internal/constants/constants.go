package constants

import "time"

// Pagination
const (
	// DefaultPageSize default page size
	DefaultPageSize = 10
	// MaxPageSize maximum page size
	MaxPageSize = 100
)

// Trial sweep
const (
	// SweepBatchSize number of lapsed trials loaded per round
	SweepBatchSize = 100
	// MaxSweepRounds upper bound on rounds per sweep run
	MaxSweepRounds = 50
	// DefaultReminderDays trials with at most this many days left get a reminder
	DefaultReminderDays = 2
	// MaxReminderDays largest accepted reminder window
	MaxReminderDays = 6
)

// Distributed locks
const (
	// AccountLockExpiration lock TTL while one change to an account runs
	AccountLockExpiration = time.Minute
	// AccountLockKeyFormat lock key per account, shared by user changes and the sweep
	AccountLockKeyFormat = "subscription_lock:account:%s"
	// AccountLockRetries user changes wait this many attempts for a busy account
	AccountLockRetries = 16
	// SweepLockRetries a busy lock means the account is being changed; the next run retries it
	SweepLockRetries = 1
)

// Subscription history actions
const (
	ActionCreated      = "created"
	ActionTrialStarted = "trial_started"
	ActionUpgraded     = "upgraded"
	ActionDowngraded   = "downgraded"
	ActionCanceled     = "canceled"
	ActionTrialExpired = "trial_expired"
)

// Request headers read by the auth middleware
const (
	HeaderAccountID = "X-Account-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderRequestID = "X-Request-ID"
)
