package rules

import (
	"time"

	"github.com/haven-social/sentinel/automod"
)

var (
	_ automod.MessageRuleFunc = MassMentionRule
	_ automod.MessageRuleFunc = MentionFloodRule
)

const (
	ReasonMassMention  = "mass_mention"
	ReasonMentionFlood = "mention_flood"
)

var (
	massMentionWindow   = 2 * time.Minute
	massMentionBanCount = 3
)

// MassMentionRule deletes broadcast-style mentions from authors outside the
// whitelist, and bans after repeated abuse within a short window. The window
// is cleared when the ban fires so the next occurrence starts fresh.
func MassMentionRule(c *automod.MessageContext) error {
	if !c.Spam.BlockMassMention || !c.Message.MassMention {
		return nil
	}
	if c.HoldsAnyRole(c.Spam.MassMentionWhitelist) {
		return nil
	}
	c.DeleteMessage(ReasonMassMention, nil)
	count := c.RecordWindow(ReasonMassMention, massMentionWindow)
	if count >= massMentionBanCount {
		c.ClearWindow(ReasonMassMention)
		c.BanAuthor(ReasonMassMention, map[string]any{"count": count})
	}
	return nil
}

// MentionFloodRule deletes messages with too many targeted mentions. Delete
// only, no escalation to ban.
func MentionFloodRule(c *automod.MessageContext) error {
	if c.Message.MentionCount <= c.Spam.MaxMentionsPerMsg {
		return nil
	}
	c.DeleteMessage(ReasonMentionFlood, map[string]any{
		"mentions": c.Message.MentionCount,
		"limit":    c.Spam.MaxMentionsPerMsg,
	})
	return nil
}
