package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/ratelimit"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisStore_FixedWindowCommitIncrements(t *testing.T) {
	client := newTestRedis(t)
	store := ratelimit.NewRedisStore(client, "test")

	count, _, err := store.CommitFixedWindow(context.Background(), "teacher-1", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, _, err = store.CommitFixedWindow(context.Background(), "teacher-1", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRedisStore_SlidingWindowPrunesOldEvents(t *testing.T) {
	client := newTestRedis(t)
	store := ratelimit.NewRedisStore(client, "test")

	count, _, err := store.CommitSlidingWindow(context.Background(), "teacher-1", 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, _, err = store.PeekSlidingWindow(context.Background(), "teacher-1", 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	time.Sleep(60 * time.Millisecond)
	count, _, err = store.PeekSlidingWindow(context.Background(), "teacher-1", 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

func TestGate_WithRedisStore(t *testing.T) {
	client := newTestRedis(t)
	store := ratelimit.NewRedisStore(client, "test")
	cfg := ratelimit.DefaultConfig()
	cfg.DailyLimit = 1
	gate := ratelimit.New(store, cfg)

	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)
	require.False(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)
}
