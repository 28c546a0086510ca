package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policystore"
)

// The primary interface exposed to rules. All other contexts derive from this "base" struct.
type BaseContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct (or sub-types) get rolled up in this nullable field
	Err error
	// slog logger handle, with event-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger
	// Evaluation timestamp, fixed once per event so every window check in a
	// cycle sees the same "now".
	Now time.Time

	engine  *Engine
	effects *Effects
}

type AccountContext struct {
	BaseContext

	TenantID string
	Account  platform.MemberMeta
}

// Context for a single content event (message posted or edited).
type MessageContext struct {
	AccountContext

	Message platform.MessageEvent
	// spam policy in effect for this cycle, read once through the cache
	Spam policystore.SpamPolicy
}

// Context for a single member-join event.
type JoinContext struct {
	AccountContext

	Join platform.JoinEvent
	Risk policystore.RiskPolicy
}

func NewMessageContext(ctx context.Context, eng *Engine, account platform.MemberMeta, evt platform.MessageEvent) MessageContext {
	now := time.Now()
	return MessageContext{
		AccountContext: AccountContext{
			BaseContext: BaseContext{
				Ctx:     ctx,
				Logger:  eng.Logger.With("tenant", evt.TenantID, "author", evt.AuthorID, "message", evt.MessageID),
				Now:     now,
				engine:  eng,
				effects: &Effects{},
			},
			TenantID: evt.TenantID,
			Account:  account,
		},
		Message: evt,
		Spam:    eng.Policies.Spam(ctx, evt.TenantID),
	}
}

func NewJoinContext(ctx context.Context, eng *Engine, account platform.MemberMeta, evt platform.JoinEvent) JoinContext {
	now := evt.OccurredAt
	if now.IsZero() {
		now = time.Now()
	}
	return JoinContext{
		AccountContext: AccountContext{
			BaseContext: BaseContext{
				Ctx:     ctx,
				Logger:  eng.Logger.With("tenant", evt.TenantID, "member", evt.MemberID),
				Now:     now,
				engine:  eng,
				effects: &Effects{},
			},
			TenantID: evt.TenantID,
			Account:  account,
		},
		Join: evt,
		Risk: eng.Policies.Risk(ctx, evt.TenantID),
	}
}

// subjectKey scopes counter keys to (tenant, subject).
func (c *AccountContext) subjectKey() string {
	return c.TenantID + "/" + c.Account.ID
}

// RecordWindow appends the event timestamp to the named sliding window for
// this subject and returns the count within the window.
func (c *AccountContext) RecordWindow(kind string, window time.Duration) int {
	out, err := c.engine.Windows.Record(c.Ctx, kind, c.subjectKey(), window, c.Now)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

// RecordTenantWindow is RecordWindow scoped to the whole tenant rather than
// one subject (used by raid surge detection).
func (c *AccountContext) RecordTenantWindow(kind string, window time.Duration) int {
	out, err := c.engine.Windows.Record(c.Ctx, kind, c.TenantID, window, c.Now)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return 0
	}
	return out
}

func (c *AccountContext) ClearWindow(kind string) {
	if err := c.engine.Windows.Clear(c.Ctx, kind, c.subjectKey()); err != nil {
		if nil == c.Err {
			c.Err = err
		}
	}
}

// BumpEscalation applies one overage for this subject under the named
// violation kind, and reports whether the escalation fired.
func (c *AccountContext) BumpEscalation(kind string, threshold int, resetWindow time.Duration) bool {
	fired, err := c.engine.Escalations.Bump(c.Ctx, kind, c.subjectKey(), threshold, resetWindow, c.Now)
	if err != nil {
		if nil == c.Err {
			c.Err = err
		}
		return false
	}
	return fired
}

// HoldsAnyRole reports whether the account holds at least one of the given
// role IDs.
func (c *AccountContext) HoldsAnyRole(roleIDs []string) bool {
	if len(roleIDs) == 0 {
		return false
	}
	held := make(map[string]bool, len(c.Account.RoleIDs))
	for _, r := range c.Account.RoleIDs {
		held[r] = true
	}
	for _, r := range roleIDs {
		if held[r] {
			return true
		}
	}
	return false
}

// update effects (indirect) ======

// DeleteMessage marks the current message for deletion with the given reason
// code. First decisive rule wins: the evaluation cycle halts.
func (c *MessageContext) DeleteMessage(reasonCode string, evidence map[string]any) {
	c.effects.Delete(reasonCode, evidence)
	c.effects.Halt()
}

// BanAuthor escalates to a permanent ban of the message author.
func (c *MessageContext) BanAuthor(reasonCode string, evidence map[string]any) {
	c.effects.EscalateMember(ActionBan, reasonCode, evidence)
}

// RestrictAuthor escalates to a temporary restriction of the message author.
func (c *MessageContext) RestrictAuthor(reasonCode string, evidence map[string]any) {
	c.effects.EscalateMember(ActionRestrict, reasonCode, evidence)
}

// AddJoinReason records an informational reason for the join log, without
// implying an action by itself.
func (c *JoinContext) AddJoinReason(reasonCode string, evidence map[string]any) {
	c.effects.AddJoinReason(reasonCode, evidence)
}

// KickMember requests removal of the joining member. Superseded if a ban is
// also requested this cycle.
func (c *JoinContext) KickMember(reasonCode string, evidence map[string]any) {
	c.effects.EscalateMember(ActionKick, reasonCode, evidence)
}

// BanMember requests a permanent ban of the joining member.
func (c *JoinContext) BanMember(reasonCode string, evidence map[string]any) {
	c.effects.EscalateMember(ActionBan, reasonCode, evidence)
}

// CanonicalLogLine writes a one-line summary of effects for this event.
func (c *BaseContext) CanonicalLogLine() {
	if c.effects.DeleteRequested || c.effects.MemberAction != nil || len(c.effects.JoinReasons) > 0 {
		c.Logger.Info("canonical-event-results",
			"deleteMessage", c.effects.DeleteRequested,
			"deleteReason", c.effects.DeleteReason,
			"memberAction", c.effects.actionKind(),
			"joinReasons", len(c.effects.JoinReasons),
		)
	}
}
