package policystore

import (
	"context"

	"github.com/haven-social/sentinel/automod/platform"
)

// Policy category names, used as cache keys and invalidation topics.
const (
	CategoryRisk     = "risk"
	CategorySpam     = "spam"
	CategoryLockdown = "lockdown"
	CategoryPanic    = "panic"
	CategorySettings = "settings"
)

// Categories lists every policy category, for whole-tenant invalidation.
var Categories = []string{CategoryRisk, CategorySpam, CategoryLockdown, CategoryPanic, CategorySettings}

type RiskPolicy struct {
	MinAccountAgeHours int `json:"min_account_age_hours"`
	RaidJoinWindowSec  int `json:"raid_join_window_sec"`
	RaidJoinCount      int `json:"raid_join_count"`
}

type SpamPolicy struct {
	MaxMsgsPer10s     int  `json:"max_msgs_per_10s"`
	MaxMentionsPerMsg int  `json:"max_mentions_per_msg"`
	BlockMassMention  bool `json:"block_mass_mention"`
	EnableLinkFilter  bool `json:"enable_link_filter"`
	// role IDs whose holders may send broadcast mentions
	MassMentionWhitelist []string `json:"mass_mention_whitelist,omitempty"`
}

type LockdownPolicy struct {
	Enabled               bool `json:"enabled"`
	MinAccountAgeHours    int  `json:"min_account_age_hours"`
	MinMembershipAgeHours int  `json:"min_membership_age_hours"`
}

// PanicState records whether tenant-wide panic is active, and the per-channel
// permission snapshot taken when it was turned on. Backup is non-nil exactly
// when Enabled is true.
type PanicState struct {
	Enabled bool                          `json:"enabled"`
	Backup  map[string]platform.PermValue `json:"backup,omitempty"`
}

// Per-tenant settings outside the detection policies proper.
type TenantSettings struct {
	LogChannelID string `json:"log_channel_id,omitempty"`
	Lang         string `json:"lang"`
}

// Documented defaults, served whenever a tenant has no stored override.
var (
	DefaultRiskPolicy     = RiskPolicy{MinAccountAgeHours: 72, RaidJoinWindowSec: 30, RaidJoinCount: 5}
	DefaultSpamPolicy     = SpamPolicy{MaxMsgsPer10s: 5, MaxMentionsPerMsg: 8, BlockMassMention: true, EnableLinkFilter: false}
	DefaultLockdownPolicy = LockdownPolicy{Enabled: false, MinAccountAgeHours: 72, MinMembershipAgeHours: 1}
	DefaultPanicState     = PanicState{Enabled: false}
	DefaultTenantSettings = TenantSettings{Lang: "en"}
)

// Patch types carry partial updates: nil fields are left unchanged.

type RiskPolicyPatch struct {
	MinAccountAgeHours *int `json:"min_account_age_hours,omitempty"`
	RaidJoinWindowSec  *int `json:"raid_join_window_sec,omitempty"`
	RaidJoinCount      *int `json:"raid_join_count,omitempty"`
}

type SpamPolicyPatch struct {
	MaxMsgsPer10s        *int      `json:"max_msgs_per_10s,omitempty"`
	MaxMentionsPerMsg    *int      `json:"max_mentions_per_msg,omitempty"`
	BlockMassMention     *bool     `json:"block_mass_mention,omitempty"`
	EnableLinkFilter     *bool     `json:"enable_link_filter,omitempty"`
	MassMentionWhitelist *[]string `json:"mass_mention_whitelist,omitempty"`
}

type LockdownPolicyPatch struct {
	Enabled               *bool `json:"enabled,omitempty"`
	MinAccountAgeHours    *int  `json:"min_account_age_hours,omitempty"`
	MinMembershipAgeHours *int  `json:"min_membership_age_hours,omitempty"`
}

type TenantSettingsPatch struct {
	LogChannelID *string `json:"log_channel_id,omitempty"`
	Lang         *string `json:"lang,omitempty"`
}

func (p RiskPolicyPatch) apply(v RiskPolicy) RiskPolicy {
	if p.MinAccountAgeHours != nil {
		v.MinAccountAgeHours = *p.MinAccountAgeHours
	}
	if p.RaidJoinWindowSec != nil {
		v.RaidJoinWindowSec = *p.RaidJoinWindowSec
	}
	if p.RaidJoinCount != nil {
		v.RaidJoinCount = *p.RaidJoinCount
	}
	return v
}

func (p SpamPolicyPatch) apply(v SpamPolicy) SpamPolicy {
	if p.MaxMsgsPer10s != nil {
		v.MaxMsgsPer10s = *p.MaxMsgsPer10s
	}
	if p.MaxMentionsPerMsg != nil {
		v.MaxMentionsPerMsg = *p.MaxMentionsPerMsg
	}
	if p.BlockMassMention != nil {
		v.BlockMassMention = *p.BlockMassMention
	}
	if p.EnableLinkFilter != nil {
		v.EnableLinkFilter = *p.EnableLinkFilter
	}
	if p.MassMentionWhitelist != nil {
		v.MassMentionWhitelist = *p.MassMentionWhitelist
	}
	return v
}

func (p LockdownPolicyPatch) apply(v LockdownPolicy) LockdownPolicy {
	if p.Enabled != nil {
		v.Enabled = *p.Enabled
	}
	if p.MinAccountAgeHours != nil {
		v.MinAccountAgeHours = *p.MinAccountAgeHours
	}
	if p.MinMembershipAgeHours != nil {
		v.MinMembershipAgeHours = *p.MinMembershipAgeHours
	}
	return v
}

func (p TenantSettingsPatch) apply(v TenantSettings) TenantSettings {
	if p.LogChannelID != nil {
		v.LogChannelID = *p.LogChannelID
	}
	if p.Lang != nil {
		v.Lang = *p.Lang
	}
	return v
}

// PolicyStore is durable per-tenant configuration. Sets are merge-patch:
// omitted fields keep their stored value. Gets always return a full policy,
// falling back to the documented defaults when the tenant has no row.
type PolicyStore interface {
	GetRisk(ctx context.Context, tenantID string) (RiskPolicy, error)
	SetRisk(ctx context.Context, tenantID string, patch RiskPolicyPatch) error

	GetSpam(ctx context.Context, tenantID string) (SpamPolicy, error)
	SetSpam(ctx context.Context, tenantID string, patch SpamPolicyPatch) error

	GetLockdown(ctx context.Context, tenantID string) (LockdownPolicy, error)
	SetLockdown(ctx context.Context, tenantID string, patch LockdownPolicyPatch) error

	GetPanic(ctx context.Context, tenantID string) (PanicState, error)
	SetPanic(ctx context.Context, tenantID string, enabled bool, backup map[string]platform.PermValue) error

	GetSettings(ctx context.Context, tenantID string) (TenantSettings, error)
	SetSettings(ctx context.Context, tenantID string, patch TenantSettingsPatch) error
}
