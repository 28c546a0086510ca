package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policystore"
)

func banOnJoin(c *JoinContext) error {
	c.BanMember("manual", nil)
	return nil
}

func kickOnJoin(c *JoinContext) error {
	c.KickMember("manual", nil)
	return nil
}

func TestEnforcementApplied(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture(RuleSet{JoinRules: []JoinRuleFunc{banOnJoin}})

	evt := platform.JoinEvent{TenantID: "tenant1", MemberID: "user1", OccurredAt: time.Now()}
	assert.NoError(eng.ProcessMemberJoin(ctx, evt))
	assert.Len(mock.Banned, 1)
	assert.Equal("user1", mock.Banned[0].Subject)
	assert.Equal("sentinel: manual", mock.Banned[0].Reason)

	// the target was notified before removal
	var notified bool
	for _, n := range mock.Notices {
		if n.Direct && n.Target == "user1" {
			notified = true
			assert.Equal(NoticeKindEnforcement, n.Notice.Kind)
			assert.Equal("high", n.Notice.Severity)
		}
	}
	assert.True(notified)
}

func TestEnforcementGuards(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, store := EngineTestFixture(RuleSet{JoinRules: []JoinRuleFunc{banOnJoin}})
	logChan := "chan-log"
	assert.NoError(store.SetSettings(ctx, "tenant1", policystore.TenantSettingsPatch{LogChannelID: &logChan}))
	mock.InsertMember(platform.MemberMeta{
		ID:        "boss",
		TenantID:  "tenant1",
		CreatedAt: time.Now().Add(-1000 * time.Hour),
		IsOwner:   true,
	})
	mock.InsertMember(platform.MemberMeta{
		ID:              "bigshot",
		TenantID:        "tenant1",
		CreatedAt:       time.Now().Add(-1000 * time.Hour),
		TopRolePosition: 100,
	})

	// never act on the tenant owner
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "boss"}))
	assert.Empty(mock.Banned)

	// never act on members ranked at or above the service identity
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "bigshot"}))
	assert.Empty(mock.Banned)

	// missing ban permission downgrades to a skip, not a failure
	mock.Perms["tenant1"].BanMembers = false
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "user1"}))
	assert.Empty(mock.Banned)

	// skipped actions are still recorded in the enforcement log with status
	var sawSkip bool
	for _, n := range mock.Notices {
		if n.Notice.Kind == NoticeKindEnforcement && n.Notice.Evidence != nil {
			if n.Notice.Evidence["exec_status"] == string(ExecSkipped) {
				sawSkip = true
			}
		}
	}
	assert.True(sawSkip)
}

func restrictOnMessage(c *MessageContext) error {
	c.RestrictAuthor("manual", nil)
	return nil
}

func TestEnforcementRestrict(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture(RuleSet{MessageRules: []MessageRuleFunc{restrictOnMessage}})

	evt := platform.MessageEvent{TenantID: "tenant1", MessageID: "m1", ChannelID: "chan1", AuthorID: "user1", Text: "hello"}
	assert.NoError(eng.ProcessMessage(ctx, evt))
	assert.Len(mock.Restricted, 1)
	assert.Equal("user1", mock.Restricted[0].Subject)
	assert.Equal("sentinel: manual", mock.Restricted[0].Reason)
	assert.Empty(mock.Banned)
	assert.Empty(mock.Kicked)

	// missing restrict permission downgrades to a skip
	eng2, mock2, _ := EngineTestFixture(RuleSet{MessageRules: []MessageRuleFunc{restrictOnMessage}})
	mock2.Perms["tenant1"].RestrictMembers = false
	assert.NoError(eng2.ProcessMessage(ctx, evt))
	assert.Empty(mock2.Restricted)
}

func TestEnforcementPlatformFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture(RuleSet{JoinRules: []JoinRuleFunc{banOnJoin}})
	mock.Fail["ban"] = fmt.Errorf("upstream 500")

	// action failures are logged, never raised
	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "user1"}))
	assert.Empty(mock.Banned)
}

func TestJoinActionPrecedence(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// both rules fire; the ban must win and at most one action runs
	eng, mock, _ := EngineTestFixture(RuleSet{JoinRules: []JoinRuleFunc{banOnJoin, kickOnJoin}})

	assert.NoError(eng.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "user1"}))
	assert.Len(mock.Banned, 1)
	assert.Empty(mock.Kicked)

	// same outcome with the rules in the opposite order
	eng2, mock2, _ := EngineTestFixture(RuleSet{JoinRules: []JoinRuleFunc{kickOnJoin, banOnJoin}})
	assert.NoError(eng2.ProcessMemberJoin(ctx, platform.JoinEvent{TenantID: "tenant1", MemberID: "user1"}))
	assert.Len(mock2.Banned, 1)
	assert.Empty(mock2.Kicked)
}

func TestEffectsEscalation(t *testing.T) {
	assert := assert.New(t)

	eff := Effects{}
	eff.EscalateMember(ActionKick, "a", nil)
	eff.EscalateMember(ActionBan, "b", nil)
	eff.EscalateMember(ActionRestrict, "c", nil)
	assert.Equal(ActionBan, eff.MemberAction.Kind)
	assert.Equal("b", eff.MemberAction.ReasonCode)

	// first delete wins
	eff.Delete("first", nil)
	eff.Delete("second", nil)
	assert.Equal("first", eff.DeleteReason)
}
