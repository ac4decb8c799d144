package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator owns the fixed set of derived-cache keys scoped to one
// provider. Every listener that touches provider state goes through it, so
// the key set is defined in exactly one place.
type Invalidator struct {
	client *redis.Client
	log    *zap.Logger
}

// NewInvalidator connects to redis and verifies the connection.
func NewInvalidator(redisAddr, password string, log *zap.Logger) (*Invalidator, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Invalidator{client: rdb, log: log}, nil
}

// NewInvalidatorWithClient wraps an existing client (used by tests).
func NewInvalidatorWithClient(client *redis.Client, log *zap.Logger) *Invalidator {
	return &Invalidator{client: client, log: log}
}

// Keys returns the derived-cache keys for one provider.
func Keys(providerID int64) []string {
	return []string{
		fmt.Sprintf("provider:%d:moderation_summary", providerID),
		fmt.Sprintf("provider:%d:flagged_ratings", providerID),
		fmt.Sprintf("provider:%d:metrics", providerID),
		fmt.Sprintf("provider:%d:rating_breakdown", providerID),
		fmt.Sprintf("provider:%d:recommendation_stats", providerID),
	}
}

// Invalidate deletes every derived-cache key for the provider. Deleting an
// absent key is a no-op. Errors are logged and swallowed: the cache is
// best-effort and must never fail the pipeline. Callers invalidate only
// after the authoritative write has succeeded.
func (i *Invalidator) Invalidate(ctx context.Context, providerID int64) {
	if i == nil || i.client == nil {
		// No-op for testing/mock mode
		return
	}
	if err := i.client.Del(ctx, Keys(providerID)...).Err(); err != nil {
		i.log.Warn("cache invalidation failed",
			zap.Int64("provider_id", providerID),
			zap.Error(err))
	}
}

// Close releases the redis connection.
func (i *Invalidator) Close() error {
	if i == nil || i.client == nil {
		return nil
	}
	return i.client.Close()
}
