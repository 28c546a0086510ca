package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/haven-social/sentinel/automod/platform"
	"github.com/haven-social/sentinel/automod/policycache"
)

// Interface for a type that can deliver structured notices.
type Notifier interface {
	// SendLog delivers a notice to the tenant's configured log channel.
	SendLog(ctx context.Context, tenantID string, notice platform.Notice) error
	// SendDirect delivers a notice to one member.
	SendDirect(ctx context.Context, tenantID, memberID string, notice platform.Notice) error
}

// PlatformNotifier delivers notices through the platform admin API. When a
// tenant has no log channel configured, the tenant owner is nudged by DM
// instead, at most once per hour per tenant.
type PlatformNotifier struct {
	Client   platform.AdminClient
	Policies policycache.Provider
	Logger   *slog.Logger

	ownerLimiters *xsync.MapOf[string, *rate.Limiter]
}

var _ Notifier = (*PlatformNotifier)(nil)

func NewPlatformNotifier(client platform.AdminClient, policies policycache.Provider, logger *slog.Logger) *PlatformNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlatformNotifier{
		Client:        client,
		Policies:      policies,
		Logger:        logger,
		ownerLimiters: xsync.NewMapOf[string, *rate.Limiter](),
	}
}

func (n *PlatformNotifier) SendLog(ctx context.Context, tenantID string, notice platform.Notice) error {
	settings := n.Policies.Settings(ctx, tenantID)
	notice.Lang = settings.Lang
	if settings.LogChannelID == "" {
		n.notifyOwnerMissingLogChannel(ctx, tenantID, settings.Lang)
		return nil
	}
	return n.Client.SendChannelNotice(ctx, tenantID, settings.LogChannelID, notice)
}

func (n *PlatformNotifier) SendDirect(ctx context.Context, tenantID, memberID string, notice platform.Notice) error {
	settings := n.Policies.Settings(ctx, tenantID)
	notice.Lang = settings.Lang
	return n.Client.SendDirectNotice(ctx, tenantID, memberID, notice)
}

// notifyOwnerMissingLogChannel reminds the tenant owner to configure a log
// channel, rate-limited per tenant. Failures are swallowed: this is a
// courtesy nudge, not a delivery guarantee.
func (n *PlatformNotifier) notifyOwnerMissingLogChannel(ctx context.Context, tenantID, lang string) {
	lim, _ := n.ownerLimiters.LoadOrCompute(tenantID, func() *rate.Limiter {
		return rate.NewLimiter(rate.Every(ownerNudgeInterval), 1)
	})
	if !lim.Allow() {
		return
	}
	ownerID, err := n.Client.GetOwnerID(ctx, tenantID)
	if err != nil || ownerID == "" {
		n.Logger.Warn("resolving tenant owner failed", "tenant", tenantID, "err", err)
		return
	}
	err = n.Client.SendDirectNotice(ctx, tenantID, ownerID, platform.Notice{
		TenantID:   tenantID,
		Kind:       NoticeKindEnforcement,
		Severity:   "low",
		Subject:    ownerID,
		ReasonCode: "log_channel_missing",
		Lang:       lang,
	})
	if err != nil {
		n.Logger.Warn("owner nudge failed", "tenant", tenantID, "err", err)
	}
}

// cooldown between owner nudges for one tenant
var ownerNudgeInterval = time.Hour
