package engine

import (
	"github.com/haven-social/sentinel/automod/platform"
)

// Execution outcomes for a single enforcement action.
type ExecStatus string

const (
	ExecApplied ExecStatus = "applied"
	ExecSkipped ExecStatus = "skipped"
	ExecFailed  ExecStatus = "failed"
)

const (
	NoticeKindJoinWarning = "join_warning"
	NoticeKindSpamWarning = "spam_warning"
	NoticeKindEnforcement = "enforcement"
)

func noticeSeverity(kind ActionKind) string {
	switch kind {
	case ActionBan:
		return "high"
	case ActionKick, ActionRestrict:
		return "medium"
	default:
		return "low"
	}
}

// applyMessageEffects performs the deletion, the optional member action, and
// the log/DM notices for one message cycle. Every side effect is
// independently best-effort: a failed delete never blocks the log entry, and
// vice versa.
func (eng *Engine) applyMessageEffects(c *MessageContext) {
	eff := c.effects

	if eff.DeleteRequested {
		decisionCount.WithLabelValues(eff.DeleteReason, string(ActionDelete)).Inc()
		if err := eng.Platform.DeleteMessage(c.Ctx, c.TenantID, c.Message.ChannelID, c.Message.MessageID); err != nil {
			c.Logger.Warn("message delete failed", "err", err, "reason", eff.DeleteReason)
			enforcementCount.WithLabelValues(string(ActionDelete), string(ExecFailed)).Inc()
		} else {
			enforcementCount.WithLabelValues(string(ActionDelete), string(ExecApplied)).Inc()
		}

		notice := platform.Notice{
			TenantID:   c.TenantID,
			Kind:       NoticeKindSpamWarning,
			Severity:   noticeSeverity(ActionDelete),
			Subject:    c.Account.ID,
			ReasonCode: eff.DeleteReason,
			Evidence:   eff.DeleteEvidence,
		}
		eng.sendLog(&c.BaseContext, notice)
		eng.sendDirect(&c.BaseContext, c.Account.ID, notice)
	}

	if eff.MemberAction != nil {
		eng.executeMemberAction(&c.AccountContext, *eff.MemberAction)
	}
}

// applyJoinEffects emits the join warning (when any reason fired) and the
// single resolved member action, if any.
func (eng *Engine) applyJoinEffects(c *JoinContext) {
	eff := c.effects
	if len(eff.JoinReasons) == 0 && eff.MemberAction == nil {
		return
	}

	for _, reason := range eff.JoinReasons {
		decisionCount.WithLabelValues(reason.ReasonCode, "log").Inc()
		notice := platform.Notice{
			TenantID:   c.TenantID,
			Kind:       NoticeKindJoinWarning,
			Severity:   "low",
			Subject:    c.Account.ID,
			ReasonCode: reason.ReasonCode,
			Evidence:   reason.Evidence,
		}
		eng.sendLog(&c.BaseContext, notice)
		eng.sendDirect(&c.BaseContext, c.Account.ID, notice)
	}

	if eff.MemberAction != nil {
		eng.executeMemberAction(&c.AccountContext, *eff.MemberAction)
	}
}

// executeMemberAction applies safety guards and performs a restrict, kick,
// or ban. Guard violations short-circuit before any platform call and are
// logged as skipped; action failures are logged, never raised, never
// retried.
func (eng *Engine) executeMemberAction(c *AccountContext, act Action) ExecStatus {
	decisionCount.WithLabelValues(act.ReasonCode, string(act.Kind)).Inc()
	status := eng.runMemberAction(c, act)
	enforcementCount.WithLabelValues(string(act.Kind), string(status)).Inc()

	notice := platform.Notice{
		TenantID:   c.TenantID,
		Kind:       NoticeKindEnforcement,
		Severity:   noticeSeverity(act.Kind),
		Subject:    c.Account.ID,
		ReasonCode: act.ReasonCode,
		Evidence:   withStatus(act.Evidence, status),
	}
	eng.sendLog(&c.BaseContext, notice)
	if eng.SlackWebhookURL != "" {
		sn := SlackNotifier{SlackWebhookURL: eng.SlackWebhookURL}
		if err := sn.Send(c.Ctx, notice); err != nil {
			c.Logger.Warn("slack webhook failed", "err", err)
		}
	}
	return status
}

func (eng *Engine) runMemberAction(c *AccountContext, act Action) ExecStatus {
	// safety guards: never act on the tenant owner, on the service identity
	// itself, or above the service's rank
	if c.Account.IsOwner {
		c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "target_owner")
		return ExecSkipped
	}
	bot, err := eng.Platform.GetBotMember(c.Ctx, c.TenantID)
	if err != nil {
		c.Logger.Warn("resolving service identity failed", "err", err)
		return ExecFailed
	}
	if c.Account.ID == bot.ID {
		c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "self_target")
		return ExecSkipped
	}
	if c.Account.TopRolePosition >= bot.TopRolePosition {
		c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "hierarchy")
		return ExecSkipped
	}
	perms, err := eng.Platform.GetBotPermissions(c.Ctx, c.TenantID)
	if err != nil {
		c.Logger.Warn("resolving permissions failed", "err", err)
		return ExecFailed
	}
	switch act.Kind {
	case ActionRestrict:
		if !perms.RestrictMembers {
			c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "missing_permission")
			return ExecSkipped
		}
	case ActionKick:
		if !perms.KickMembers {
			c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "missing_permission")
			return ExecSkipped
		}
	case ActionBan:
		if !perms.BanMembers {
			c.Logger.Info("enforcement skipped", "kind", act.Kind, "cause", "missing_permission")
			return ExecSkipped
		}
	}

	// DM notice before removal; failure to deliver never blocks the action
	eng.sendDirect(&c.BaseContext, c.Account.ID, platform.Notice{
		TenantID:   c.TenantID,
		Kind:       NoticeKindEnforcement,
		Severity:   noticeSeverity(act.Kind),
		Subject:    c.Account.ID,
		ReasonCode: act.ReasonCode,
		Evidence:   act.Evidence,
	})

	reason := "sentinel: " + act.ReasonCode
	switch act.Kind {
	case ActionRestrict:
		err = eng.Platform.RestrictMember(c.Ctx, c.TenantID, c.Account.ID, eng.RestrictDuration, reason)
	case ActionKick:
		err = eng.Platform.KickMember(c.Ctx, c.TenantID, c.Account.ID, reason)
	case ActionBan:
		err = eng.Platform.BanMember(c.Ctx, c.TenantID, c.Account.ID, reason)
	}
	if err != nil {
		c.Logger.Warn("enforcement action failed", "kind", act.Kind, "err", err)
		return ExecFailed
	}
	c.Logger.Info("enforcement applied", "kind", act.Kind, "reason", act.ReasonCode)
	return ExecApplied
}

func (eng *Engine) sendLog(c *BaseContext, notice platform.Notice) {
	if eng.Notifier == nil {
		return
	}
	if err := eng.Notifier.SendLog(c.Ctx, notice.TenantID, notice); err != nil {
		noticeFailCount.WithLabelValues("log").Inc()
		c.Logger.Warn("log notice failed", "err", err)
	}
}

func (eng *Engine) sendDirect(c *BaseContext, memberID string, notice platform.Notice) {
	if eng.Notifier == nil {
		return
	}
	if err := eng.Notifier.SendDirect(c.Ctx, notice.TenantID, memberID, notice); err != nil {
		noticeFailCount.WithLabelValues("direct").Inc()
		c.Logger.Warn("direct notice failed", "err", err)
	}
}

func withStatus(evidence map[string]any, status ExecStatus) map[string]any {
	out := make(map[string]any, len(evidence)+1)
	for k, v := range evidence {
		out[k] = v
	}
	out["exec_status"] = string(status)
	return out
}
