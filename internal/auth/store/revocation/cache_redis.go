package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"landregistry/pkg/platform/sentinel"
)

var (
	cacheLookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "landregistry_invalidated_token_cache_duration_ms",
		Help:    "Latency of invalidated-token cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

// Redis key prefix for invalidated token hashes
const invalidatedKeyPrefix = "itl:sha256:"

// RedisCache mirrors committed invalidations with a TTL equal to the token's
// remaining lifetime. A miss is not authoritative.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Add caches the hash until the token would have expired anyway.
func (c *RedisCache) Add(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if tokenHash == "" {
		return nil
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return c.client.Set(ctx, invalidatedKeyPrefix+tokenHash, "1", ttl).Err()
}

// Contains reports whether the hash is cached as invalidated.
func (c *RedisCache) Contains(ctx context.Context, tokenHash string) (bool, error) {
	start := time.Now()
	defer func() {
		cacheLookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if tokenHash == "" {
		return false, nil
	}
	_, err := c.client.Get(ctx, invalidatedKeyPrefix+tokenHash).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
