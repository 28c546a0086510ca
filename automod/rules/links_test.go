package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haven-social/sentinel/automod"
	"github.com/haven-social/sentinel/automod/policystore"
)

func TestSuspiciousLinkRuleDisabled(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// the link filter is opt-in, default off
	eng, mock, _ := automod.EngineTestFixture(DefaultRules())
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m1", "join https://t.me/freestuff now")))
	assert.Empty(mock.Deleted)
}

func TestSuspiciousLinkRule(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, store := automod.EngineTestFixture(DefaultRules())
	enabled := true
	maxMsgs := 50
	assert.NoError(store.SetSpam(ctx, "tenant1", policystore.SpamPolicyPatch{EnableLinkFilter: &enabled, MaxMsgsPer10s: &maxMsgs}))

	// deny-listed host
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m1", "join https://t.me/freestuff now")))
	assert.Len(mock.Deleted, 1)

	// host impersonating the gift domain
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m2", "claim at havengifts.ru/claim")))
	assert.Len(mock.Deleted, 2)

	// phishing keyword anywhere in the URL
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m3", "free credit: nitrodrop.example.com/go")))
	assert.Len(mock.Deleted, 3)

	// the official gift domain is always allowed
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m4", "gift for you https://haven.gifts/abc123")))
	assert.Len(mock.Deleted, 3)

	// plain links pass
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m5", "docs at https://example.com/manual")))
	assert.Len(mock.Deleted, 3)
	assert.Empty(mock.Banned)
}

func TestSuspiciousLinkRuleOnEdit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, store := automod.EngineTestFixture(DefaultRules())
	enabled := true
	maxMsgs := 50
	assert.NoError(store.SetSpam(ctx, "tenant1", policystore.SpamPolicyPatch{EnableLinkFilter: &enabled, MaxMsgsPer10s: &maxMsgs}))

	// clean on creation
	assert.NoError(eng.ProcessMessage(ctx, msgEvent("m1", "totally normal message")))
	assert.Empty(mock.Deleted)

	// the edit swaps in a deny-listed link and gets caught on re-entry
	assert.NoError(eng.ProcessMessageEdit(ctx, msgEvent("m1", "actually, join https://t.me/freestuff")))
	assert.Len(mock.Deleted, 1)
	assert.Equal("m1", mock.Deleted[0].Subject)
}
