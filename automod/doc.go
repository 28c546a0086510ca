// Policy-driven moderation automation for a managed community platform.
//
// This package (`github.com/haven-social/sentinel/automod`) watches a stream
// of membership and content events per tenant and applies configurable
// policies to detect abuse patterns (spam, mention flooding, phishing links,
// raid-style mass joins, suspicious new accounts), reacting with graduated
// enforcement: delete, temporary restriction, removal, permanent ban.
// Per-tenant policies are read through a short-TTL cache with explicit
// invalidation; sliding-window counters and escalation trackers turn
// repeated violations into increasingly severe actions, subject to safety
// guards (role hierarchy, owner exemption, permission checks).
//
// See `cmd/sentineld` for a daemon built on this package.
package automod
