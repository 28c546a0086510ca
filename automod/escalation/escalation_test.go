package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemTrackerThreshold(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := NewMemTracker()
	t0 := time.Now()
	reset := 30 * time.Minute

	// threshold-1 bumps never fire
	for i := 0; i < 9; i++ {
		fired, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0.Add(time.Duration(i)*time.Second))
		assert.NoError(err)
		assert.False(fired)
	}

	// the threshold-th bump fires exactly once
	fired, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0.Add(9*time.Second))
	assert.NoError(err)
	assert.True(fired)

	// the counter restarted with the fire; the next bump is fresh
	fired, err = tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0.Add(10*time.Second))
	assert.NoError(err)
	assert.False(fired)
}

func TestMemTrackerResetWindow(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := NewMemTracker()
	t0 := time.Now()
	reset := 30 * time.Minute

	for i := 0; i < 9; i++ {
		fired, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0)
		assert.NoError(err)
		assert.False(fired)
	}

	// window expired: this bump restarts at 1, does not fire
	fired, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0.Add(reset+time.Second))
	assert.NoError(err)
	assert.False(fired)
}

func TestMemTrackerKindsIndependent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := NewMemTracker()
	t0 := time.Now()
	reset := 30 * time.Minute

	for i := 0; i < 9; i++ {
		_, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0)
		assert.NoError(err)
	}
	// same subject, different violation kind: separate counter
	fired, err := tr.Bump(ctx, "link", "tenant1/user1", 10, reset, t0)
	assert.NoError(err)
	assert.False(fired)

	fired, err = tr.Bump(ctx, "rate", "tenant1/user1", 10, reset, t0)
	assert.NoError(err)
	assert.True(fired)
}

func TestMemTrackerSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	tr := NewMemTracker()
	t0 := time.Now()

	_, err := tr.Bump(ctx, "rate", "tenant1/user1", 10, time.Hour, t0)
	assert.NoError(err)
	_, err = tr.Bump(ctx, "rate", "tenant1/user2", 10, time.Hour, t0.Add(30*time.Minute))
	assert.NoError(err)

	removed := tr.Sweep(t0.Add(time.Hour+time.Second), time.Hour)
	assert.Equal(1, removed)
}
