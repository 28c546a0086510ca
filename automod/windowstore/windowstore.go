// Sliding-time-window event counters, keyed by (name, val).
//
// This is the primitive behind message rate limiting, raid surge detection,
// and the short mass-mention escalation window. Keys follow the same
// name/val convention as the rest of the stores: "name" is the counter
// namespace (eg "rate"), "val" identifies the subject within it (eg
// "tenant123/user456").
package windowstore

import (
	"context"
	"time"
)

type WindowStore interface {
	// Record appends now to the buffer for (name, val), drops entries older
	// than window, and returns the resulting count (including this event).
	Record(ctx context.Context, name, val string, window time.Duration, now time.Time) (int, error)

	// Clear drops the buffer for (name, val) entirely. Used when an
	// escalation fires and the window must start fresh.
	Clear(ctx context.Context, name, val string) error
}

func bucketKey(name, val string) string {
	return name + "/" + val
}
