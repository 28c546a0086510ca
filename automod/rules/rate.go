package rules

import (
	"time"

	"github.com/haven-social/sentinel/automod"
)

var _ automod.MessageRuleFunc = MessageRateRule

const ReasonRate = "rate"

var (
	rateWindow = 10 * time.Second
	// extra overages past the threshold before escalating to ban
	extraViolationsToBan = 10
	overageResetWindow   = 30 * time.Minute
)

// MessageRateRule deletes messages past the per-author rate limit, and bans
// authors who keep breaching it: the Nth overage within the reset window
// escalates.
func MessageRateRule(c *automod.MessageContext) error {
	count := c.RecordWindow(ReasonRate, rateWindow)
	if count <= c.Spam.MaxMsgsPer10s {
		return nil
	}
	evidence := map[string]any{"count": count, "limit": c.Spam.MaxMsgsPer10s}
	c.DeleteMessage(ReasonRate, evidence)
	if c.BumpEscalation(ReasonRate, extraViolationsToBan, overageResetWindow) {
		c.BanAuthor(ReasonRate, evidence)
	}
	return nil
}
