package windowstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemWindowStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore()
	t0 := time.Now()
	window := 10 * time.Second

	c, err := ws.Record(ctx, "rate", "tenant1/user1", window, t0)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = ws.Record(ctx, "rate", "tenant1/user1", window, t0.Add(time.Second))
	assert.NoError(err)
	assert.Equal(2, c)
	c, err = ws.Record(ctx, "rate", "tenant1/user1", window, t0.Add(2*time.Second))
	assert.NoError(err)
	assert.Equal(3, c)

	// different key, same kind
	c, err = ws.Record(ctx, "rate", "tenant1/user2", window, t0.Add(2*time.Second))
	assert.NoError(err)
	assert.Equal(1, c)

	// different kind, same key
	c, err = ws.Record(ctx, "mass_mention", "tenant1/user1", window, t0.Add(2*time.Second))
	assert.NoError(err)
	assert.Equal(1, c)

	// an event exactly at the window boundary still counts
	c, err = ws.Record(ctx, "rate", "tenant1/user1", window, t0.Add(window))
	assert.NoError(err)
	assert.Equal(4, c)

	// an event past the boundary drops the old entries
	c, err = ws.Record(ctx, "rate", "tenant1/user1", window, t0.Add(window+15*time.Second))
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemWindowStoreClear(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore()
	t0 := time.Now()
	window := 2 * time.Minute

	for i := 0; i < 3; i++ {
		_, err := ws.Record(ctx, "mass_mention", "tenant1/user1", window, t0.Add(time.Duration(i)*time.Second))
		assert.NoError(err)
	}
	assert.NoError(ws.Clear(ctx, "mass_mention", "tenant1/user1"))

	c, err := ws.Record(ctx, "mass_mention", "tenant1/user1", window, t0.Add(5*time.Second))
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemWindowStoreSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore()
	t0 := time.Now()

	_, err := ws.Record(ctx, "rate", "tenant1/user1", 10*time.Second, t0)
	assert.NoError(err)
	_, err = ws.Record(ctx, "rate", "tenant1/user2", 10*time.Second, t0.Add(30*time.Minute))
	assert.NoError(err)

	removed := ws.Sweep(t0.Add(time.Hour+time.Second), time.Hour)
	assert.Equal(1, removed)

	// the swept key starts over
	c, err := ws.Record(ctx, "rate", "tenant1/user1", time.Hour*2, t0.Add(time.Hour+2*time.Second))
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemWindowStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ws := NewMemWindowStore()
	window := time.Minute

	// Record against two keys from four goroutines, read via Record on a
	// third key from two more. No value assertions beyond "no error"; this
	// is for the race detector (run with `-race`). A short sleep yields to
	// the scheduler so writes interleave.
	var wg sync.WaitGroup
	fnRec := func(name, val string, times int) {
		for i := 0; i < times; i++ {
			_, err := ws.Record(ctx, name, val, window, time.Now())
			assert.NoError(err)
			time.Sleep(time.Nanosecond)
		}
		wg.Done()
	}
	wg.Add(5)
	go fnRec("rate", "t/a", 100)
	go fnRec("rate", "t/a", 100)
	go fnRec("rate", "t/b", 100)
	go fnRec("link", "t/b", 100)
	go fnRec("rate", "t/c", 50)
	wg.Wait()

	c, err := ws.Record(ctx, "rate", "t/a", window, time.Now())
	assert.NoError(err)
	assert.Equal(201, c)
}
