package rules

import (
	"time"

	"github.com/haven-social/sentinel/automod"
)

var (
	_ automod.JoinRuleFunc = NewAccountRule
	_ automod.JoinRuleFunc = RaidSurgeRule
)

const (
	ReasonNewAccount = "new_account"
	ReasonRaidSurge  = "raid_surge"

	joinSurgeKind = "join_surge"
)

// NewAccountRule flags accounts younger than the policy minimum and requests
// a kick. When a raid surge fires for the same join, the surge's ban wins.
func NewAccountRule(c *automod.JoinContext) error {
	age := c.Account.AccountAgeHours(c.Now)
	if age >= float64(c.Risk.MinAccountAgeHours) {
		return nil
	}
	evidence := map[string]any{"account_age_hours": age, "min_hours": c.Risk.MinAccountAgeHours}
	c.AddJoinReason(ReasonNewAccount, evidence)
	c.KickMember(ReasonNewAccount, evidence)
	return nil
}

// RaidSurgeRule counts joins per tenant (not per subject) in the configured
// window and requests a ban once the surge threshold is met, regardless of
// the joining account's age.
func RaidSurgeRule(c *automod.JoinContext) error {
	window := time.Duration(c.Risk.RaidJoinWindowSec) * time.Second
	count := c.RecordTenantWindow(joinSurgeKind, window)
	if count < c.Risk.RaidJoinCount {
		return nil
	}
	evidence := map[string]any{"join_count": count, "window_sec": c.Risk.RaidJoinWindowSec}
	c.AddJoinReason(ReasonRaidSurge, evidence)
	c.BanMember(ReasonRaidSurge, evidence)
	return nil
}
