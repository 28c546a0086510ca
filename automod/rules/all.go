package rules

import (
	"github.com/haven-social/sentinel/automod"
)

// DefaultRules returns the standard rule set, message rules in evaluation
// priority order. The lockdown gate runs inside the engine ahead of these.
func DefaultRules() automod.RuleSet {
	return automod.RuleSet{
		MessageRules: []automod.MessageRuleFunc{
			MessageRateRule,
			MassMentionRule,
			MentionFloodRule,
			SuspiciousLinkRule,
		},
		JoinRules: []automod.JoinRuleFunc{
			NewAccountRule,
			RaidSurgeRule,
		},
	}
}
