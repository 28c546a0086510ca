package policystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/haven-social/sentinel/automod/platform"
)

func testPolicyStore(t *testing.T, store PolicyStore) {
	assert := assert.New(t)
	ctx := context.Background()

	// absent tenants read as the documented defaults
	risk, err := store.GetRisk(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(DefaultRiskPolicy, risk)
	spam, err := store.GetSpam(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(DefaultSpamPolicy, spam)
	lockdown, err := store.GetLockdown(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(DefaultLockdownPolicy, lockdown)
	settings, err := store.GetSettings(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(DefaultTenantSettings, settings)

	// partial patch: only the named field changes
	raidCount := 3
	assert.NoError(store.SetRisk(ctx, "tenant1", RiskPolicyPatch{RaidJoinCount: &raidCount}))
	risk, err = store.GetRisk(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(3, risk.RaidJoinCount)
	assert.Equal(DefaultRiskPolicy.MinAccountAgeHours, risk.MinAccountAgeHours)
	assert.Equal(DefaultRiskPolicy.RaidJoinWindowSec, risk.RaidJoinWindowSec)

	// a second patch does not clobber the first
	minAge := 24
	assert.NoError(store.SetRisk(ctx, "tenant1", RiskPolicyPatch{MinAccountAgeHours: &minAge}))
	risk, err = store.GetRisk(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal(24, risk.MinAccountAgeHours)
	assert.Equal(3, risk.RaidJoinCount)

	// other tenants are untouched
	risk, err = store.GetRisk(ctx, "tenant2")
	assert.NoError(err)
	assert.Equal(DefaultRiskPolicy, risk)

	linkFilter := true
	maxMsgs := 8
	assert.NoError(store.SetSpam(ctx, "tenant1", SpamPolicyPatch{EnableLinkFilter: &linkFilter, MaxMsgsPer10s: &maxMsgs}))
	spam, err = store.GetSpam(ctx, "tenant1")
	assert.NoError(err)
	assert.True(spam.EnableLinkFilter)
	assert.Equal(8, spam.MaxMsgsPer10s)
	assert.True(spam.BlockMassMention)

	enabled := true
	assert.NoError(store.SetLockdown(ctx, "tenant1", LockdownPolicyPatch{Enabled: &enabled}))
	lockdown, err = store.GetLockdown(ctx, "tenant1")
	assert.NoError(err)
	assert.True(lockdown.Enabled)
	assert.Equal(DefaultLockdownPolicy.MinAccountAgeHours, lockdown.MinAccountAgeHours)

	logChan := "chan-log"
	assert.NoError(store.SetSettings(ctx, "tenant1", TenantSettingsPatch{LogChannelID: &logChan}))
	settings, err = store.GetSettings(ctx, "tenant1")
	assert.NoError(err)
	assert.Equal("chan-log", settings.LogChannelID)
	assert.Equal("en", settings.Lang)

	// panic state round-trips the permission snapshot exactly, including
	// the unset tri-state
	backup := map[string]platform.PermValue{
		"chanA": platform.PermAllow,
		"chanB": platform.PermUnset,
		"chanC": platform.PermDeny,
	}
	assert.NoError(store.SetPanic(ctx, "tenant1", true, backup))
	state, err := store.GetPanic(ctx, "tenant1")
	assert.NoError(err)
	assert.True(state.Enabled)
	assert.Equal(backup, state.Backup)

	assert.NoError(store.SetPanic(ctx, "tenant1", false, nil))
	state, err = store.GetPanic(ctx, "tenant1")
	assert.NoError(err)
	assert.False(state.Enabled)
	assert.Empty(state.Backup)
}

func TestMemPolicyStore(t *testing.T) {
	testPolicyStore(t, NewMemPolicyStore())
}

func TestGormPolicyStore(t *testing.T) {
	assert := assert.New(t)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(err)
	store, err := NewGormPolicyStore(db)
	assert.NoError(err)

	testPolicyStore(t, store)
}
