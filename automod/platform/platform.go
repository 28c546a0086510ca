package platform

import (
	"context"
	"time"
)

// Tri-state channel permission value. The distinction between "unset" and
// "deny" matters: restoring a panic snapshot must put back exactly what was
// there before, and "no explicit override" is a valid prior state.
type PermValue string

const (
	PermUnset PermValue = "unset"
	PermAllow PermValue = "allow"
	PermDeny  PermValue = "deny"
)

// Metadata for a tenant member, as returned by the platform admin API.
type MemberMeta struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	// when the account was registered on the platform (not when it joined this tenant)
	CreatedAt time.Time `json:"created_at"`
	JoinedAt  time.Time `json:"joined_at"`
	RoleIDs   []string  `json:"role_ids"`
	// position of the member's highest role in the tenant hierarchy; larger outranks smaller
	TopRolePosition int  `json:"top_role_position"`
	IsOwner         bool `json:"is_owner"`
	// automated (integration/bot) accounts are exempt from detection
	IsAutomated bool `json:"is_automated"`
	// holds a moderation-equivalent capability (manage messages, admin, etc)
	Privileged bool `json:"privileged"`
}

// AccountAgeHours returns hours since platform account creation.
func (m *MemberMeta) AccountAgeHours(now time.Time) float64 {
	return now.Sub(m.CreatedAt).Hours()
}

// MembershipAgeHours returns hours since the member joined this tenant.
func (m *MemberMeta) MembershipAgeHours(now time.Time) float64 {
	if m.JoinedAt.IsZero() {
		return 0
	}
	return now.Sub(m.JoinedAt).Hours()
}

type ChannelMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// text channel which members can post to (panic targets these)
	Writable bool `json:"writable"`
}

// Moderation capabilities held by the service's own identity in a tenant.
type Permissions struct {
	DeleteMessages  bool `json:"delete_messages"`
	RestrictMembers bool `json:"restrict_members"`
	KickMembers     bool `json:"kick_members"`
	BanMembers      bool `json:"ban_members"`
	ManageChannels  bool `json:"manage_channels"`
}

// A content event from the tenant's message stream. Edits re-enter the same
// pipeline as creations, with Edited set.
type MessageEvent struct {
	TenantID  string `json:"tenant_id"`
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	AuthorID  string `json:"author_id"`
	Text      string `json:"text"`
	// count of targeted user and role mentions in this message
	MentionCount int `json:"mention_count"`
	// broadcast-style mention (@everyone equivalent)
	MassMention bool `json:"mass_mention"`
	Edited      bool `json:"edited"`
}

type JoinEvent struct {
	TenantID   string    `json:"tenant_id"`
	MemberID   string    `json:"member_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Structured notification record handed to the external transport. The engine
// never formats localized strings; it passes reason codes and numeric
// evidence, and the transport/formatter does the rest.
type Notice struct {
	TenantID   string         `json:"tenant_id"`
	Kind       string         `json:"kind"` // join_warning | spam_warning | enforcement
	Severity   string         `json:"severity"`
	Subject    string         `json:"subject"`
	ReasonCode string         `json:"reason_code"`
	Evidence   map[string]any `json:"evidence,omitempty"`
	Lang       string         `json:"lang,omitempty"`
}

// AdminClient is the interface to the community platform's admin API: member
// and channel metadata reads, enforcement actions, and notice delivery.
//
// Enforcement calls are blocking, fallible, and idempotent on the platform
// side; callers treat each as independently best-effort.
type AdminClient interface {
	GetMember(ctx context.Context, tenantID, memberID string) (*MemberMeta, error)
	GetBotMember(ctx context.Context, tenantID string) (*MemberMeta, error)
	GetBotPermissions(ctx context.Context, tenantID string) (*Permissions, error)
	GetOwnerID(ctx context.Context, tenantID string) (string, error)

	ListTextChannels(ctx context.Context, tenantID string) ([]ChannelMeta, error)
	GetPostPermission(ctx context.Context, tenantID, channelID string) (PermValue, error)
	SetPostPermission(ctx context.Context, tenantID, channelID string, val PermValue) error

	DeleteMessage(ctx context.Context, tenantID, channelID, messageID string) error
	RestrictMember(ctx context.Context, tenantID, memberID string, d time.Duration, reason string) error
	KickMember(ctx context.Context, tenantID, memberID, reason string) error
	BanMember(ctx context.Context, tenantID, memberID, reason string) error

	SendChannelNotice(ctx context.Context, tenantID, channelID string, notice Notice) error
	SendDirectNotice(ctx context.Context, tenantID, memberID string, notice Notice) error
}
