package policycache

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/haven-social/sentinel/automod/policystore"
)

// RedisCache is a Provider shared across processes. No local cache tier: an
// Invalidate on one process must be visible to reads on every other.
//
// Degradation is weaker than MemCache. Redis evicts entries on TTL, so a
// store outage after expiry falls back to defaults rather than the
// last-known value.
type RedisCache struct {
	Store  policystore.PolicyStore
	Data   *cache.Cache
	TTL    time.Duration
	Logger *slog.Logger
}

var _ Provider = (*RedisCache)(nil)

func NewRedisCache(store policystore.PolicyStore, redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisCache{
		Store:  store,
		Data:   cache.New(&cache.Options{Redis: rdb}),
		TTL:    ttl,
		Logger: logger,
	}, nil
}

func redisKey(category, tenantID string) string {
	return "policy/" + cacheKey(category, tenantID)
}

func redisReadThrough[T any](ctx context.Context, c *RedisCache, category, tenantID string, fetch func(context.Context, string) (T, error), def T) T {
	var val T
	err := c.Data.Get(ctx, redisKey(category, tenantID), &val)
	if err == nil {
		return val
	}
	if err != cache.ErrCacheMiss {
		c.Logger.Warn("policy cache read failed", "tenant", tenantID, "category", category, "err", err)
	}

	val, err = fetch(ctx, tenantID)
	if err != nil {
		c.Logger.Warn("policy store read failed", "tenant", tenantID, "category", category, "err", err)
		return def
	}
	if err := c.Data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKey(category, tenantID),
		Value: val,
		TTL:   c.TTL,
	}); err != nil {
		c.Logger.Warn("policy cache write failed", "tenant", tenantID, "category", category, "err", err)
	}
	return val
}

func (c *RedisCache) Risk(ctx context.Context, tenantID string) policystore.RiskPolicy {
	return redisReadThrough(ctx, c, policystore.CategoryRisk, tenantID, c.Store.GetRisk, policystore.DefaultRiskPolicy)
}

func (c *RedisCache) Spam(ctx context.Context, tenantID string) policystore.SpamPolicy {
	return redisReadThrough(ctx, c, policystore.CategorySpam, tenantID, c.Store.GetSpam, policystore.DefaultSpamPolicy)
}

func (c *RedisCache) Lockdown(ctx context.Context, tenantID string) policystore.LockdownPolicy {
	return redisReadThrough(ctx, c, policystore.CategoryLockdown, tenantID, c.Store.GetLockdown, policystore.DefaultLockdownPolicy)
}

func (c *RedisCache) Panic(ctx context.Context, tenantID string) policystore.PanicState {
	return redisReadThrough(ctx, c, policystore.CategoryPanic, tenantID, c.Store.GetPanic, policystore.DefaultPanicState)
}

func (c *RedisCache) Settings(ctx context.Context, tenantID string) policystore.TenantSettings {
	return redisReadThrough(ctx, c, policystore.CategorySettings, tenantID, c.Store.GetSettings, policystore.DefaultTenantSettings)
}

func (c *RedisCache) Invalidate(ctx context.Context, tenantID, category string) {
	if err := c.Data.Delete(ctx, redisKey(category, tenantID)); err != nil && err != cache.ErrCacheMiss {
		c.Logger.Warn("policy cache invalidation failed", "tenant", tenantID, "category", category, "err", err)
	}
}

func (c *RedisCache) InvalidateAll(ctx context.Context, tenantID string) {
	for _, category := range policystore.Categories {
		c.Invalidate(ctx, tenantID, category)
	}
}
