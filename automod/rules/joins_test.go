package rules

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haven-social/sentinel/automod"
	"github.com/haven-social/sentinel/automod/platform"
)

func TestNewAccountRule(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := automod.EngineTestFixture(DefaultRules())
	mock.InsertMember(platform.MemberMeta{
		ID:        "young",
		TenantID:  "tenant1",
		CreatedAt: time.Now().Add(-10 * time.Hour),
	})

	// account age 10h is under the 72h default floor
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{
		TenantID: "tenant1", MemberID: "young", OccurredAt: time.Now(),
	}))
	assert.Len(mock.Kicked, 1)
	assert.Equal("young", mock.Kicked[0].Subject)
	assert.Equal("sentinel: "+ReasonNewAccount, mock.Kicked[0].Reason)

	// an established account joins without incident
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{
		TenantID: "tenant1", MemberID: "user1", OccurredAt: time.Now(),
	}))
	assert.Len(mock.Kicked, 1)
	assert.Empty(mock.Banned)
}

func TestRaidSurgeRule(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := automod.EngineTestFixture(DefaultRules())
	t0 := time.Now()
	for i := 1; i <= 5; i++ {
		mock.InsertMember(platform.MemberMeta{
			ID:        fmt.Sprintf("joiner%d", i),
			TenantID:  "tenant1",
			CreatedAt: t0.Add(-1000 * time.Hour),
		})
	}

	// five joins inside the default 30s window: the fifth trips the surge
	for i := 1; i <= 5; i++ {
		assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{
			TenantID:   "tenant1",
			MemberID:   fmt.Sprintf("joiner%d", i),
			OccurredAt: t0.Add(time.Duration(i) * 4 * time.Second),
		}))
	}
	assert.Len(mock.Banned, 1)
	assert.Equal("joiner5", mock.Banned[0].Subject)
	assert.Equal("sentinel: "+ReasonRaidSurge, mock.Banned[0].Reason)
	assert.Empty(mock.Kicked)
}

func TestRaidSurgeOutweighsNewAccount(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := automod.EngineTestFixture(DefaultRules())
	t0 := time.Now()
	for i := 1; i <= 4; i++ {
		mock.InsertMember(platform.MemberMeta{
			ID:        fmt.Sprintf("joiner%d", i),
			TenantID:  "tenant1",
			CreatedAt: t0.Add(-1000 * time.Hour),
		})
	}
	mock.InsertMember(platform.MemberMeta{
		ID:        "young",
		TenantID:  "tenant1",
		CreatedAt: t0.Add(-1 * time.Hour),
	})

	for i := 1; i <= 4; i++ {
		assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{
			TenantID:   "tenant1",
			MemberID:   fmt.Sprintf("joiner%d", i),
			OccurredAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}
	assert.Empty(mock.Banned)

	// the fifth joiner is also a brand-new account: both signals fire, but
	// exactly one action runs and the ban wins
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{
		TenantID: "tenant1", MemberID: "young", OccurredAt: t0.Add(5 * time.Second),
	}))
	assert.Len(mock.Banned, 1)
	assert.Equal("young", mock.Banned[0].Subject)
	assert.Equal("sentinel: "+ReasonRaidSurge, mock.Banned[0].Reason)
	assert.Empty(mock.Kicked)
}
