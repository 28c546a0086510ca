package rules

import (
	"strings"

	"github.com/haven-social/sentinel/automod"
	"github.com/haven-social/sentinel/automod/helpers"
)

var _ automod.MessageRuleFunc = SuspiciousLinkRule

const ReasonSuspiciousLink = "suspicious_link"

// escalation counter kind for link overages; tracked independently of "rate"
const linkViolationKind = "link"

var (
	// the platform's official gift domain is always allowed
	officialGiftDomain = "haven.gifts"
	// hosts impersonating the gift domain ("havengifts.ru" etc)
	impersonationFragment = "havengift"
	denyHosts             = map[string]bool{
		"t.me": true,
	}
	phishingKeywords = []string{"haven-airdrop", "nitrodrop", "grabfree"}
)

// SuspiciousLinkRule scans message text for URLs pointing at known phishing
// or impersonation targets. The first blocked URL deletes the message and
// ends the scan; repeated offenses escalate to ban on the same schedule as
// the rate rule, tracked under a separate counter kind.
func SuspiciousLinkRule(c *automod.MessageContext) error {
	if !c.Spam.EnableLinkFilter {
		return nil
	}
	for _, raw := range helpers.ExtractTextURLs(c.Message.Text) {
		lower := strings.ToLower(raw)
		host := helpers.HostOfURL(raw)
		if host == officialGiftDomain {
			continue
		}
		blocked := strings.Contains(host, impersonationFragment) || denyHosts[host]
		if !blocked {
			for _, kw := range phishingKeywords {
				if strings.Contains(lower, kw) {
					blocked = true
					break
				}
			}
		}
		if !blocked {
			continue
		}
		evidence := map[string]any{"host": host, "url_hash": helpers.HashOfString(lower)}
		c.DeleteMessage(ReasonSuspiciousLink, evidence)
		if c.BumpEscalation(linkViolationKind, extraViolationsToBan, overageResetWindow) {
			c.BanAuthor(ReasonSuspiciousLink, evidence)
		}
		return nil
	}
	return nil
}
