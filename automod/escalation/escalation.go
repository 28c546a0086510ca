// Escalation counters: N overages within a rolling reset window fire a
// severe action.
//
// Counters are keyed (name, val) like the other stores and tracked
// independently per violation kind, so exhausting one kind's counter never
// affects another. State is process-local by design: escalation is a
// defense-in-depth layer, and losing in-flight counts on restart is an
// accepted trade-off.
package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type Tracker interface {
	// Bump applies one overage. If the existing window is older than
	// resetWindow the counter restarts before incrementing. Reaching
	// threshold resets the counter and returns true, atomically with the
	// fire; the next Bump behaves as if the counter were fresh.
	Bump(ctx context.Context, name, val string, threshold int, resetWindow time.Duration, now time.Time) (bool, error)
}

type MemTracker struct {
	counters *xsync.MapOf[string, *counter]
}

type counter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	lastTouch   time.Time
}

var _ Tracker = (*MemTracker)(nil)

func NewMemTracker() *MemTracker {
	return &MemTracker{
		counters: xsync.NewMapOf[string, *counter](),
	}
}

func (t *MemTracker) Bump(ctx context.Context, name, val string, threshold int, resetWindow time.Duration, now time.Time) (bool, error) {
	c, _ := t.counters.LoadOrCompute(name+"/"+val, func() *counter {
		return &counter{windowStart: now}
	})
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.windowStart) > resetWindow {
		c.count = 0
		c.windowStart = now
	}
	c.count++
	c.lastTouch = now
	if c.count >= threshold {
		c.count = 0
		c.windowStart = now
		return true, nil
	}
	return false, nil
}

// Sweep deletes counters idle longer than maxAge.
func (t *MemTracker) Sweep(now time.Time, maxAge time.Duration) int {
	removed := 0
	t.counters.Range(func(key string, c *counter) bool {
		c.mu.Lock()
		idle := now.Sub(c.lastTouch) > maxAge
		c.mu.Unlock()
		if idle {
			t.counters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
