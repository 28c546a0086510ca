package engine

import (
	"log/slog"
	"time"

	"github.com/haven-social/sentinel/automod/escalation"
	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policycache"
	"github.com/haven-social/sentinel/automod/policystore"
	"github.com/haven-social/sentinel/automod/windowstore"
)

// EngineTestFixture builds an engine on in-memory stores and a mock platform
// client, with one plain member pre-registered. Intentionally exported, for
// use in other packages.
func EngineTestFixture(rules RuleSet) (*Engine, *platform.MockClient, *policystore.MemPolicyStore) {
	store := policystore.NewMemPolicyStore()
	cache := policycache.NewMemCache(store, 10*time.Second, slog.Default())
	mock := platform.NewMockClient()
	mock.InsertMember(platform.MemberMeta{
		ID:        "user1",
		TenantID:  "tenant1",
		CreatedAt: time.Now().Add(-1000 * time.Hour),
		JoinedAt:  time.Now().Add(-500 * time.Hour),
	})
	mock.Owners["tenant1"] = "owner1"
	eng := &Engine{
		Logger:           slog.Default(),
		Rules:            rules,
		Policies:         cache,
		PolicyStore:      store,
		Windows:          windowstore.NewMemWindowStore(),
		Escalations:      escalation.NewMemTracker(),
		Platform:         mock,
		RestrictDuration: 10 * time.Minute,
	}
	eng.Notifier = NewPlatformNotifier(mock, cache, eng.Logger)
	return eng, mock, store
}
