package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/haven-social/sentinel/automod/escalation"
	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policycache"
	"github.com/haven-social/sentinel/automod/policystore"
	"github.com/haven-social/sentinel/automod/windowstore"
)

// runtime for evaluating detection rules against tenant events and applying
// graduated enforcement.
//
// All state is partitioned by tenant: policies and guard state live in the
// policy store (read through the cache), window buffers and escalation
// counters in the window/escalation stores. There is no cross-tenant
// coordination of any kind.
type Engine struct {
	Logger      *slog.Logger
	Rules       RuleSet
	Policies    policycache.Provider
	PolicyStore policystore.PolicyStore
	Windows     windowstore.WindowStore
	Escalations escalation.Tracker
	Platform    platform.AdminClient
	Notifier    Notifier
	// used to mirror enforcement records to an ops channel (optional)
	SlackWebhookURL string

	// duration applied when a rule asks for a temporary restriction
	RestrictDuration time.Duration
}

// ProcessMessage runs a content event through the lockdown gate and the
// message rules, then applies accumulated effects. Automated and privileged
// authors are exempt from everything.
func (eng *Engine) ProcessMessage(ctx context.Context, evt platform.MessageEvent) error {
	// similar to an HTTP server, recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("detection event execution exception", "err", r, "tenant", evt.TenantID, "message", evt.MessageID)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("message").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("message").Inc()

	account, err := eng.Platform.GetMember(ctx, evt.TenantID, evt.AuthorID)
	if err != nil {
		eventErrorCount.WithLabelValues("message").Inc()
		return fmt.Errorf("resolving message author: %w", err)
	}
	if account.IsAutomated || account.Privileged {
		return nil
	}

	c := NewMessageContext(ctx, eng, *account, evt)

	// lockdown is an unconditional gate ahead of detection; it never touches
	// the rate/mention/link counters
	if eng.checkLockdown(&c) {
		eng.applyMessageEffects(&c)
		return c.Err
	}

	if err := eng.Rules.CallMessageRules(&c); err != nil {
		eventErrorCount.WithLabelValues("message").Inc()
		return err
	}
	eng.applyMessageEffects(&c)
	c.CanonicalLogLine()
	return c.Err
}

// ProcessMessageEdit re-enters the message pipeline: edits can smuggle
// violations past initial review.
func (eng *Engine) ProcessMessageEdit(ctx context.Context, evt platform.MessageEvent) error {
	evt.Edited = true
	return eng.ProcessMessage(ctx, evt)
}

// ProcessMemberJoin evaluates the join rules. Both join reasons may be
// logged for one event, but at most one enforcement action is applied, with
// ban (raid_surge) taking precedence over kick (new_account).
func (eng *Engine) ProcessMemberJoin(ctx context.Context, evt platform.JoinEvent) error {
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("detection event execution exception", "err", r, "tenant", evt.TenantID, "member", evt.MemberID)
		}
	}()
	start := time.Now()
	defer func() {
		eventProcessDuration.WithLabelValues("join").Observe(time.Since(start).Seconds())
	}()
	eventProcessCount.WithLabelValues("join").Inc()

	account, err := eng.Platform.GetMember(ctx, evt.TenantID, evt.MemberID)
	if err != nil {
		eventErrorCount.WithLabelValues("join").Inc()
		return fmt.Errorf("resolving joining member: %w", err)
	}
	if account.IsAutomated {
		return nil
	}

	c := NewJoinContext(ctx, eng, *account, evt)
	if err := eng.Rules.CallJoinRules(&c); err != nil {
		eventErrorCount.WithLabelValues("join").Inc()
		return err
	}
	eng.applyJoinEffects(&c)
	c.CanonicalLogLine()
	return c.Err
}

// OnPolicyChanged invalidates the matching cache entries. Callers must
// invoke this synchronously after a configuration write and before
// acknowledging the write, so any evaluation starting after the ack sees
// the new value.
func (eng *Engine) OnPolicyChanged(ctx context.Context, tenantID, category string) {
	if category == "" || category == "*" {
		eng.Policies.InvalidateAll(ctx, tenantID)
		return
	}
	eng.Policies.Invalidate(ctx, tenantID, category)
}
