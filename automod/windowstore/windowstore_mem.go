package windowstore

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemWindowStore keeps timestamp buffers in process memory, one lock per
// buffer. Calls for different keys never contend; calls for the same key
// serialize, which the append-prune-count sequence requires.
//
// A key that stops receiving events is not cleaned up by Record itself; run
// Sweep periodically to bound memory.
type MemWindowStore struct {
	buffers *xsync.MapOf[string, *windowBuffer]
}

type windowBuffer struct {
	mu        sync.Mutex
	stamps    []time.Time
	lastTouch time.Time
}

var _ WindowStore = (*MemWindowStore)(nil)

func NewMemWindowStore() *MemWindowStore {
	return &MemWindowStore{
		buffers: xsync.NewMapOf[string, *windowBuffer](),
	}
}

func (s *MemWindowStore) Record(ctx context.Context, name, val string, window time.Duration, now time.Time) (int, error) {
	buf, _ := s.buffers.LoadOrCompute(bucketKey(name, val), func() *windowBuffer {
		return &windowBuffer{}
	})
	buf.mu.Lock()
	defer buf.mu.Unlock()

	buf.stamps = append(buf.stamps, now)
	buf.lastTouch = now

	// prune in place; retained entries all satisfy now-ts <= window
	kept := buf.stamps[:0]
	for _, ts := range buf.stamps {
		if now.Sub(ts) <= window {
			kept = append(kept, ts)
		}
	}
	buf.stamps = kept
	return len(buf.stamps), nil
}

func (s *MemWindowStore) Clear(ctx context.Context, name, val string) error {
	s.buffers.Delete(bucketKey(name, val))
	return nil
}

// Sweep deletes buffers that have not been touched within maxAge. maxAge
// should be at least the largest window any caller uses.
func (s *MemWindowStore) Sweep(now time.Time, maxAge time.Duration) int {
	removed := 0
	s.buffers.Range(func(key string, buf *windowBuffer) bool {
		buf.mu.Lock()
		idle := now.Sub(buf.lastTouch) > maxAge
		buf.mu.Unlock()
		if idle {
			s.buffers.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
