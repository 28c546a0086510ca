// Short-TTL read-through caching for per-tenant policies.
//
// Sits between the hot event path and the durable policy store. Entries are
// served for at most DefaultTTL after load; configuration writes invalidate
// synchronously, so the TTL only bounds staleness when an invalidation was
// missed (process restart, dropped event). A store failure on refresh falls
// back to the last loaded value if one exists, else to the documented
// defaults; event processing is never blocked on a store error.
package policycache

import (
	"context"
	"time"

	"github.com/haven-social/sentinel/automod/policystore"
)

var DefaultTTL = 10 * time.Second

// Provider is what the detection engine reads policies through. Getters do
// not return errors: degradation on store failure is handled internally.
type Provider interface {
	Risk(ctx context.Context, tenantID string) policystore.RiskPolicy
	Spam(ctx context.Context, tenantID string) policystore.SpamPolicy
	Lockdown(ctx context.Context, tenantID string) policystore.LockdownPolicy
	Panic(ctx context.Context, tenantID string) policystore.PanicState
	Settings(ctx context.Context, tenantID string) policystore.TenantSettings

	// Invalidate drops the cached entry for one category. Must complete
	// before the configuration write that triggered it is acknowledged.
	Invalidate(ctx context.Context, tenantID, category string)
	InvalidateAll(ctx context.Context, tenantID string)
}

func cacheKey(category, tenantID string) string {
	return category + "/" + tenantID
}
