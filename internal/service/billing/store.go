// internal/service/billing/store.go
package billing

import (
	"context"
	"time"

	"fitcoach-service/internal/domain/billing"
)

// processorTimeout bounds every outbound payment-processor call.
const processorTimeout = 15 * time.Second

// SubscriptionStore is the persistence surface the billing services need.
// Implemented by repository/postgres.SubscriptionRepository.
type SubscriptionStore interface {
	// FindByUserID returns xerrors.ErrNotFound when the user has no record.
	FindByUserID(ctx context.Context, userID int64) (*billing.Subscription, error)
	// Upsert atomically inserts or replaces the record keyed by user id.
	Upsert(ctx context.Context, sub *billing.Subscription) error
}

// SubscriptionCache is the optional read cache in front of the store.
// Implemented by pkg/cache.SubscriptionCache; a nil cache disables caching.
type SubscriptionCache interface {
	Get(ctx context.Context, userID int64) (*billing.Subscription, bool, error)
	Set(ctx context.Context, sub *billing.Subscription) error
	Invalidate(ctx context.Context, userID int64) error
}
