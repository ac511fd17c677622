package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "leads:detail:"

// RedisCache keeps lead details as JSON strings with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisClient opens a client for the configured REDIS_URL.
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// OpenCache connects the read cache. It returns a nil Cache, which the
// service treats as disabled, when caching is off or Redis does not answer.
// The returned close func is never nil.
func OpenCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (Cache, func()) {
	if !cfg.IsLeadCacheEnabled() {
		log.Info("lead read cache disabled")
		return nil, func() {}
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		log.Error("lead cache misconfigured", "error", err)
		return nil, func() {}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("lead cache unreachable, reading from the database only", "error", err)
		_ = client.Close()
		return nil, func() {}
	}
	return NewRedisCache(client, cfg.GetLeadCacheTTL()), func() { _ = client.Close() }
}

func cacheKey(leadID uuid.UUID) string {
	return cacheKeyPrefix + leadID.String()
}

func (c *RedisCache) Get(ctx context.Context, leadID uuid.UUID) (*Detail, error) {
	raw, err := c.client.Get(ctx, cacheKey(leadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var d Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		// a stale shape is dropped rather than served
		_ = c.client.Del(ctx, cacheKey(leadID)).Err()
		return nil, nil
	}
	return &d, nil
}

func (c *RedisCache) Set(ctx context.Context, detail Detail) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(detail.Lead.ID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, leadID uuid.UUID) error {
	return c.client.Del(ctx, cacheKey(leadID)).Err()
}
