package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solidario/solidario/internal/model"
)

const (
	// subscriptionCachePrefix is the Redis key prefix for subscription snapshots.
	subscriptionCachePrefix = "sub:status:"
	// subscriptionCacheTTL keeps status reads cheap without letting a
	// stale window survive long after a mutation.
	subscriptionCacheTTL = 30 * time.Second
)

// ErrCacheMiss indicates the requested key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// cachedSubscription is the subscription snapshot stored in Redis.
type cachedSubscription struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	StartsAt int64  `json:"starts_at"`
	EndsAt   int64  `json:"ends_at"`
}

// GetSubscription retrieves a cached subscription snapshot for a user.
func (c *Cache) GetSubscription(ctx context.Context, userID string) (*model.Subscription, error) {
	data, err := c.client.Get(ctx, subscriptionCachePrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get subscription cache: %w", err)
	}

	var cached cachedSubscription
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &model.Subscription{
		ID:       cached.ID,
		UserID:   userID,
		Status:   model.SubscriptionStatus(cached.Status),
		StartsAt: time.Unix(cached.StartsAt, 0).UTC(),
		EndsAt:   time.Unix(cached.EndsAt, 0).UTC(),
	}, nil
}

// SetSubscription caches a subscription snapshot for a user.
func (c *Cache) SetSubscription(ctx context.Context, sub *model.Subscription) error {
	cached := cachedSubscription{
		ID:       sub.ID,
		Status:   string(sub.Status),
		StartsAt: sub.StartsAt.Unix(),
		EndsAt:   sub.EndsAt.Unix(),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	return c.client.Set(ctx, subscriptionCachePrefix+sub.UserID, data, subscriptionCacheTTL).Err()
}

// DeleteSubscription invalidates the cached snapshot after a mutation.
func (c *Cache) DeleteSubscription(ctx context.Context, userID string) error {
	return c.client.Del(ctx, subscriptionCachePrefix+userID).Err()
}
