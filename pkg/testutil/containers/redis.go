//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"landregistry/internal/platform/config"
	"landregistry/internal/platform/redis"
)

// RedisContainer backs the revocation cache in integration suites. Cache is
// built through the same constructor the server uses.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Cache     *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}

	cache, err := redis.New(ctx, config.RedisConfig{URL: url, PoolSize: 4, DialTimeout: 5 * time.Second})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect redis: %v", err)
	}

	// Shared across suites through Manager; Ryuk reaps the container.
	return &RedisContainer{Container: container, URL: url, Cache: cache}
}

// Reset drops every key so each test starts from an empty revocation cache.
func (r *RedisContainer) Reset(ctx context.Context) error {
	if err := r.Cache.Health(ctx); err != nil {
		return err
	}
	return r.Cache.FlushDB(ctx).Err()
}
