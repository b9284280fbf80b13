// internal/pkg/cache/subscription_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitcoach-service/internal/domain/billing"

	"github.com/redis/go-redis/v9"
)

const subscriptionTTL = 60 * time.Second

// SubscriptionCache is a short-lived read cache in front of the subscriptions
// table. It must be invalidated on every successful upsert; staleness beyond
// the TTL is never acceptable for the access decision path.
type SubscriptionCache struct {
	client *redis.Client
}

func NewSubscriptionCache(client *redis.Client) *SubscriptionCache {
	return &SubscriptionCache{client: client}
}

func subscriptionKey(userID int64) string {
	return fmt.Sprintf("billing:subscription:%d", userID)
}

// Get returns the cached subscription for a user. The second return value is
// false on a cache miss.
func (c *SubscriptionCache) Get(ctx context.Context, userID int64) (*billing.Subscription, bool, error) {
	raw, err := c.client.Get(ctx, subscriptionKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read subscription cache: %w", err)
	}

	var sub billing.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		// Treat a corrupt entry as a miss; the next Set overwrites it.
		return nil, false, nil
	}

	return &sub, true, nil
}

// Set stores the subscription with a short TTL.
func (c *SubscriptionCache) Set(ctx context.Context, sub *billing.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	if err := c.client.Set(ctx, subscriptionKey(sub.UserID), raw, subscriptionTTL).Err(); err != nil {
		return fmt.Errorf("failed to write subscription cache: %w", err)
	}

	return nil
}

// Invalidate removes the cached entry for a user. Called after every
// successful upsert by the webhook synchronizer.
func (c *SubscriptionCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, subscriptionKey(userID)).Err()
}
