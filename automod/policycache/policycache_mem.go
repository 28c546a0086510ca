package policycache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/haven-social/sentinel/automod/policystore"
)

// MemCache is a process-local Provider. Expired entries are retained (not
// evicted) so a store outage can be ridden out on the last known value.
type MemCache struct {
	Store  policystore.PolicyStore
	TTL    time.Duration
	Logger *slog.Logger

	entries *xsync.MapOf[string, *memEntry]
}

type memEntry struct {
	mu        sync.Mutex
	val       any
	loaded    bool
	expiresAt time.Time
}

var _ Provider = (*MemCache)(nil)

func NewMemCache(store policystore.PolicyStore, ttl time.Duration, logger *slog.Logger) *MemCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MemCache{
		Store:   store,
		TTL:     ttl,
		Logger:  logger,
		entries: xsync.NewMapOf[string, *memEntry](),
	}
}

// readThrough serializes per (category, tenant): concurrent misses for the
// same key do a single store read at a time, different keys never contend.
func readThrough[T any](ctx context.Context, c *MemCache, category, tenantID string, fetch func(context.Context, string) (T, error), def T) T {
	ent, _ := c.entries.LoadOrCompute(cacheKey(category, tenantID), func() *memEntry {
		return &memEntry{}
	})
	ent.mu.Lock()
	defer ent.mu.Unlock()

	now := time.Now()
	if ent.loaded && now.Before(ent.expiresAt) {
		return ent.val.(T)
	}

	val, err := fetch(ctx, tenantID)
	if err != nil {
		c.Logger.Warn("policy store read failed", "tenant", tenantID, "category", category, "err", err)
		if ent.loaded {
			// graceful degradation: expired-but-cached beats defaults
			return ent.val.(T)
		}
		return def
	}
	ent.val = val
	ent.loaded = true
	ent.expiresAt = now.Add(c.TTL)
	return val
}

func (c *MemCache) Risk(ctx context.Context, tenantID string) policystore.RiskPolicy {
	return readThrough(ctx, c, policystore.CategoryRisk, tenantID, c.Store.GetRisk, policystore.DefaultRiskPolicy)
}

func (c *MemCache) Spam(ctx context.Context, tenantID string) policystore.SpamPolicy {
	return readThrough(ctx, c, policystore.CategorySpam, tenantID, c.Store.GetSpam, policystore.DefaultSpamPolicy)
}

func (c *MemCache) Lockdown(ctx context.Context, tenantID string) policystore.LockdownPolicy {
	return readThrough(ctx, c, policystore.CategoryLockdown, tenantID, c.Store.GetLockdown, policystore.DefaultLockdownPolicy)
}

func (c *MemCache) Panic(ctx context.Context, tenantID string) policystore.PanicState {
	return readThrough(ctx, c, policystore.CategoryPanic, tenantID, c.Store.GetPanic, policystore.DefaultPanicState)
}

func (c *MemCache) Settings(ctx context.Context, tenantID string) policystore.TenantSettings {
	return readThrough(ctx, c, policystore.CategorySettings, tenantID, c.Store.GetSettings, policystore.DefaultTenantSettings)
}

func (c *MemCache) Invalidate(ctx context.Context, tenantID, category string) {
	c.entries.Delete(cacheKey(category, tenantID))
}

func (c *MemCache) InvalidateAll(ctx context.Context, tenantID string) {
	for _, category := range policystore.Categories {
		c.entries.Delete(cacheKey(category, tenantID))
	}
}
