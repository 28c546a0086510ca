package windowstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisWindowPrefix = "window/"

// RedisWindowStore keeps each buffer as a sorted set scored by event time.
// Surviving process restarts costs a round-trip per event; deployments that
// accept counter amnesia on restart should prefer MemWindowStore.
type RedisWindowStore struct {
	Client *redis.Client

	seq atomic.Uint64
}

var _ WindowStore = (*RedisWindowStore)(nil)

func NewRedisWindowStore(redisURL string) (*RedisWindowStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &RedisWindowStore{Client: rdb}, nil
}

func (s *RedisWindowStore) Record(ctx context.Context, name, val string, window time.Duration, now time.Time) (int, error) {
	key := redisWindowPrefix + bucketKey(name, val)
	cutoff := now.Add(-window).UnixNano()

	// member must be unique per event; two events can share a nanosecond
	member := fmt.Sprintf("%d-%d", now.UnixNano(), s.seq.Add(1))

	multi := s.Client.Pipeline()
	multi.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
	multi.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
	card := multi.ZCard(ctx, key)
	multi.Expire(ctx, key, window+time.Minute)
	if _, err := multi.Exec(ctx); err != nil {
		return 0, err
	}
	return int(card.Val()), nil
}

func (s *RedisWindowStore) Clear(ctx context.Context, name, val string) error {
	return s.Client.Del(ctx, redisWindowPrefix+bucketKey(name, val)).Err()
}
