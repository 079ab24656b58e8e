package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/orchestrator/internal/ratelimit"
)

func TestCheckExecutionLimit_DailyCapMonotonicity(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := ratelimit.DefaultConfig()
	cfg.DailyLimit = 1
	gate := ratelimit.New(store, cfg)

	first := gate.CheckExecutionLimit(context.Background(), "teacher-1", "")
	require.True(t, first.Allowed)
	assert.Equal(t, 0, first.Remaining)

	second := gate.CheckExecutionLimit(context.Background(), "teacher-1", "")
	require.False(t, second.Allowed)
	assert.Equal(t, ratelimit.WindowDailyTeacher, second.LimitType)

	third := gate.CheckExecutionLimit(context.Background(), "teacher-1", "")
	assert.False(t, third.Allowed, "remains denied until the window resets")
}

func TestCheckExecutionLimit_IndependentTeachers(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := ratelimit.DefaultConfig()
	cfg.DailyLimit = 1
	gate := ratelimit.New(store, cfg)

	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-a", "").Allowed)
	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-b", "").Allowed)
}

func TestCheckExecutionLimit_BurstWindow(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := ratelimit.DefaultConfig()
	cfg.BurstLimit = 2
	cfg.BurstWindow = time.Minute
	gate := ratelimit.New(store, cfg)

	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)
	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)
	third := gate.CheckExecutionLimit(context.Background(), "teacher-1", "")
	require.False(t, third.Allowed)
	assert.Equal(t, ratelimit.WindowBurstTeacher, third.LimitType)
}

// failingStore always errors, exercising the fail-open policy.
type failingStore struct{}

func (failingStore) PeekFixedWindow(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, assertErr
}
func (failingStore) CommitFixedWindow(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, assertErr
}
func (failingStore) PeekSlidingWindow(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, assertErr
}
func (failingStore) CommitSlidingWindow(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, assertErr
}

var assertErr = assertError("store unreachable")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestCheckExecutionLimit_FailsOpenOnStoreError(t *testing.T) {
	gate := ratelimit.New(failingStore{}, ratelimit.DefaultConfig())
	decision := gate.CheckExecutionLimit(context.Background(), "teacher-1", "classroom-1")
	assert.True(t, decision.Allowed, "an unreachable store must fail open")
}

func TestGetUsageStats_ReflectsConsumedQuota(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := ratelimit.DefaultConfig()
	gate := ratelimit.New(store, cfg)

	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)
	require.True(t, gate.CheckExecutionLimit(context.Background(), "teacher-1", "").Allowed)

	stats := gate.GetUsageStats(context.Background(), "teacher-1")
	assert.Equal(t, cfg.DailyLimit, stats.Daily.Limit)
	assert.Equal(t, cfg.DailyLimit-2, stats.Daily.Remaining)
	assert.Equal(t, cfg.BurstLimit-2, stats.Burst.Remaining)
	assert.False(t, stats.Daily.ResetAt.IsZero())

	// Peeking must not consume quota.
	again := gate.GetUsageStats(context.Background(), "teacher-1")
	assert.Equal(t, stats.Daily.Remaining, again.Daily.Remaining)
}

func TestCheckIPLimit(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	cfg := ratelimit.DefaultConfig()
	cfg.IPLimit = 1
	gate := ratelimit.New(store, cfg)

	require.True(t, gate.CheckIPLimit(context.Background(), "1.2.3.4").Allowed)
	denied := gate.CheckIPLimit(context.Background(), "1.2.3.4")
	assert.False(t, denied.Allowed)
	assert.Equal(t, ratelimit.WindowIP, denied.LimitType)
}
