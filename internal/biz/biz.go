package biz

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	DefaultCatalog,
	NewClock,
	NewEvaluator,
	NewSubscriptionUsecase,
)

// Transaction runs fn inside a single storage transaction.
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewClock provides the wall clock to the wire graph.
func NewClock() Clock { return SystemClock }
