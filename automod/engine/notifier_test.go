package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policycache"
	"github.com/haven-social/sentinel/automod/policystore"
)

func TestNotifierLogChannel(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := policystore.NewMemPolicyStore()
	logChan := "chan-log"
	lang := "fr"
	assert.NoError(store.SetSettings(ctx, "tenant1", policystore.TenantSettingsPatch{LogChannelID: &logChan, Lang: &lang}))

	mock := platform.NewMockClient()
	n := NewPlatformNotifier(mock, policycache.NewMemCache(store, 10*time.Second, nil), nil)

	assert.NoError(n.SendLog(ctx, "tenant1", platform.Notice{TenantID: "tenant1", Kind: NoticeKindEnforcement, ReasonCode: "manual"}))
	assert.Len(mock.Notices, 1)
	assert.Equal("chan-log", mock.Notices[0].Target)
	assert.False(mock.Notices[0].Direct)
	// the tenant's language rides along on every notice
	assert.Equal("fr", mock.Notices[0].Notice.Lang)

	assert.NoError(n.SendDirect(ctx, "tenant1", "user1", platform.Notice{TenantID: "tenant1", Kind: NoticeKindSpamWarning}))
	assert.Len(mock.Notices, 2)
	assert.True(mock.Notices[1].Direct)
	assert.Equal("fr", mock.Notices[1].Notice.Lang)
}

func TestNotifierOwnerNudge(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := policystore.NewMemPolicyStore()
	mock := platform.NewMockClient()
	mock.Owners["tenant1"] = "owner1"
	n := NewPlatformNotifier(mock, policycache.NewMemCache(store, 10*time.Second, nil), nil)

	// no log channel configured: the owner gets a DM nudge instead
	assert.NoError(n.SendLog(ctx, "tenant1", platform.Notice{TenantID: "tenant1", Kind: NoticeKindEnforcement}))
	assert.Len(mock.Notices, 1)
	assert.True(mock.Notices[0].Direct)
	assert.Equal("owner1", mock.Notices[0].Target)
	assert.Equal("log_channel_missing", mock.Notices[0].Notice.ReasonCode)

	// nudges are rate limited per tenant; a burst yields exactly one
	for i := 0; i < 5; i++ {
		assert.NoError(n.SendLog(ctx, "tenant1", platform.Notice{TenantID: "tenant1", Kind: NoticeKindEnforcement}))
	}
	assert.Len(mock.Notices, 1)

	// other tenants have their own limiter
	mock.Owners["tenant2"] = "owner2"
	assert.NoError(n.SendLog(ctx, "tenant2", platform.Notice{TenantID: "tenant2", Kind: NoticeKindEnforcement}))
	assert.Len(mock.Notices, 2)
	assert.Equal("owner2", mock.Notices[1].Target)
}

func TestNotifierNoOwner(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := policystore.NewMemPolicyStore()
	mock := platform.NewMockClient()
	n := NewPlatformNotifier(mock, policycache.NewMemCache(store, 10*time.Second, nil), nil)

	// nobody to nudge: swallow, don't error
	assert.NoError(n.SendLog(ctx, "tenant1", platform.Notice{TenantID: "tenant1", Kind: NoticeKindEnforcement}))
	assert.Empty(mock.Notices)
}
