package engine

import (
	"context"
	"fmt"

	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policystore"
)

// Outcome of a panic toggle. Partial failure does not roll anything back:
// every channel is attempted independently and the caller is told how many
// failed.
type GuardResult struct {
	Changed   bool `json:"changed"`
	Enabled   bool `json:"enabled"`
	Attempted int  `json:"attempted"`
	Failed    int  `json:"failed"`
}

// PanicOn locks every writable text channel, snapshotting each channel's
// prior post-permission tri-state before overwriting it to deny. The
// snapshot is taken per channel before mutation, so a later PanicOff
// restores exactly what was there, including "unset". Re-invoking while
// already on is a no-op reporting current state.
func (eng *Engine) PanicOn(ctx context.Context, tenantID string) (*GuardResult, error) {
	state, err := eng.PolicyStore.GetPanic(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("reading panic state: %w", err)
	}
	if state.Enabled {
		return &GuardResult{Changed: false, Enabled: true}, nil
	}

	channels, err := eng.Platform.ListTextChannels(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	res := &GuardResult{Changed: true, Enabled: true}
	backup := make(map[string]platform.PermValue)
	for _, ch := range channels {
		if !ch.Writable {
			continue
		}
		res.Attempted++
		prev, err := eng.Platform.GetPostPermission(ctx, tenantID, ch.ID)
		if err != nil {
			eng.Logger.Warn("panic: reading channel permission failed", "tenant", tenantID, "channel", ch.ID, "err", err)
			res.Failed++
			continue
		}
		// snapshot strictly before mutation
		backup[ch.ID] = prev
		if err := eng.Platform.SetPostPermission(ctx, tenantID, ch.ID, platform.PermDeny); err != nil {
			eng.Logger.Warn("panic: locking channel failed", "tenant", tenantID, "channel", ch.ID, "err", err)
			res.Failed++
		}
	}

	if err := eng.PolicyStore.SetPanic(ctx, tenantID, true, backup); err != nil {
		return nil, fmt.Errorf("persisting panic state: %w", err)
	}
	eng.Policies.Invalidate(ctx, tenantID, policystore.CategoryPanic)
	guardToggleCount.WithLabelValues("panic", "on").Inc()
	eng.Logger.Info("panic enabled", "tenant", tenantID, "channels", res.Attempted, "failed", res.Failed)
	return res, nil
}

// PanicOff restores each snapshotted channel to its recorded prior value and
// clears the snapshot. Re-invoking while already off is a no-op reporting
// current state.
func (eng *Engine) PanicOff(ctx context.Context, tenantID string) (*GuardResult, error) {
	state, err := eng.PolicyStore.GetPanic(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("reading panic state: %w", err)
	}
	if !state.Enabled {
		return &GuardResult{Changed: false, Enabled: false}, nil
	}

	res := &GuardResult{Changed: true, Enabled: false}
	for chID, prev := range state.Backup {
		res.Attempted++
		if err := eng.Platform.SetPostPermission(ctx, tenantID, chID, prev); err != nil {
			eng.Logger.Warn("panic: restoring channel failed", "tenant", tenantID, "channel", chID, "err", err)
			res.Failed++
		}
	}

	if err := eng.PolicyStore.SetPanic(ctx, tenantID, false, nil); err != nil {
		return nil, fmt.Errorf("persisting panic state: %w", err)
	}
	eng.Policies.Invalidate(ctx, tenantID, policystore.CategoryPanic)
	guardToggleCount.WithLabelValues("panic", "off").Inc()
	eng.Logger.Info("panic disabled", "tenant", tenantID, "channels", res.Attempted, "failed", res.Failed)
	return res, nil
}

const ReasonLockdown = "lockdown"

// checkLockdown applies the lockdown gate: when enabled, messages from
// accounts younger than the age thresholds are deleted and the author
// notified. Independent of the spam rules and their counters. Returns true
// when the message was gated.
//
// Privileged and automated authors never reach this point; the engine
// exempts them before building the context.
func (eng *Engine) checkLockdown(c *MessageContext) bool {
	pol := eng.Policies.Lockdown(c.Ctx, c.TenantID)
	if !pol.Enabled {
		return false
	}
	acctAge := c.Account.AccountAgeHours(c.Now)
	memberAge := c.Account.MembershipAgeHours(c.Now)
	if acctAge >= float64(pol.MinAccountAgeHours) && memberAge >= float64(pol.MinMembershipAgeHours) {
		return false
	}
	c.effects.Delete(ReasonLockdown, map[string]any{
		"account_age_hours":    acctAge,
		"membership_age_hours": memberAge,
	})
	c.effects.Halt()
	return true
}
