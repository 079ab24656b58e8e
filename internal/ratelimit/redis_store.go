package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a distributed Store backed by Redis: INCR + EXPIRE
// fixed-window counters, and a sorted set of event timestamps trimmed to
// the window on every call for sliding windows (the standard Redis
// sliding-window-log pattern). Any client error is surfaced to the Gate,
// which fails open.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore wraps an existing redis client. keyPrefix namespaces keys
// so multiple gates can share one Redis instance.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStore) fixedKey(key string, window time.Duration) string {
	bucket := time.Now().Unix() / int64(window.Seconds())
	return fmt.Sprintf("%s:fixed:%s:%d", r.keyPrefix, key, bucket)
}

func (r *RedisStore) PeekFixedWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := r.fixedKey(key, window)
	n, err := r.client.Get(ctx, k).Int()
	if err == redis.Nil {
		return 0, nextBucketReset(window), nil
	}
	if err != nil {
		return 0, time.Time{}, err
	}
	return n, nextBucketReset(window), nil
}

func (r *RedisStore) CommitFixedWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := r.fixedKey(key, window)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return int(incr.Val()), nextBucketReset(window), nil
}

func nextBucketReset(window time.Duration) time.Time {
	now := time.Now()
	bucket := now.Unix() / int64(window.Seconds())
	return time.Unix((bucket+1)*int64(window.Seconds()), 0)
}

func (r *RedisStore) slidingKey(key string) string {
	return fmt.Sprintf("%s:sliding:%s", r.keyPrefix, key)
}

func (r *RedisStore) PeekSlidingWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := r.slidingKey(key)
	now := time.Now()
	cutoff := now.Add(-window)
	if err := r.client.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("%d", cutoff.UnixNano())).Err(); err != nil {
		return 0, time.Time{}, err
	}
	count, err := r.client.ZCard(ctx, k).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	return int(count), now.Add(window), nil
}

func (r *RedisStore) CommitSlidingWindow(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := r.slidingKey(key)
	now := time.Now()
	cutoff := now.Add(-window)
	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("%d", cutoff.UnixNano()))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, k, window)
	card := pipe.ZCard(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}
	return int(card.Val()), now.Add(window), nil
}
