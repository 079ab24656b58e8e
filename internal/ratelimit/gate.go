// Package ratelimit implements the multi-window admission gate: a fixed
// daily window per teacher, a fixed hourly window per classroom, a sliding
// burst window per teacher, and a sliding per-IP window for unauthenticated
// callers. In-memory and Redis-backed counter stores sit behind one
// interface, both failing open when the shared store is unreachable.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window identifies which tier denied a request, reported back as
// Decision.LimitType so the caller can name the first failing window.
type Window string

const (
	WindowDailyTeacher    Window = "daily teacher limit"
	WindowHourlyClassroom Window = "hourly classroom limit"
	WindowBurstTeacher    Window = "burst teacher limit"
	WindowIP              Window = "ip limit"
)

// Config holds the overridable per-window caps.
type Config struct {
	DailyLimit  int // per teacher, resets at UTC midnight
	HourlyLimit int // per classroom, fixed 3600s window
	BurstLimit  int // per teacher, sliding 60s window
	IPLimit     int // per source address, sliding 60s window
	BurstWindow time.Duration
	IPWindow    time.Duration
}

// DefaultConfig returns the production default caps.
func DefaultConfig() Config {
	return Config{
		DailyLimit:  500,
		HourlyLimit: 100,
		BurstLimit:  10,
		IPLimit:     30,
		BurstWindow: 60 * time.Second,
		IPWindow:    60 * time.Second,
	}
}

// Decision is the result of an admission check.
type Decision struct {
	Allowed   bool
	LimitType Window // populated only when !Allowed
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store abstracts the counter backend. Peek must never mutate state; Commit
// increments. Every method must fail open: on backend error, the gate
// treats the window as passing so availability trumps strict accounting.
type Store interface {
	// PeekFixedWindow reports the current count in the fixed window that
	// resets at the returned resetAt, without incrementing it.
	PeekFixedWindow(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	// CommitFixedWindow increments the fixed window counter and returns the
	// post-increment count.
	CommitFixedWindow(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	// PeekSlidingWindow reports the current count in the trailing window,
	// without incrementing it.
	PeekSlidingWindow(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
	// CommitSlidingWindow records a new event in the sliding window and
	// returns the post-increment count.
	CommitSlidingWindow(ctx context.Context, key string, window time.Duration) (count int, resetAt time.Time, err error)
}

// Gate is the admission façade over the counter store and configured caps.
type Gate struct {
	cfg   Config
	store Store
	mu    sync.Mutex
}

// New builds a Gate over the given store and config.
func New(store Store, cfg Config) *Gate {
	return &Gate{cfg: cfg, store: store}
}

// CheckExecutionLimit evaluates the daily (per teacher), hourly (per
// classroom, if given) and burst (per teacher) windows, in that order, and
// denies on the first one that would be exceeded. All applicable windows
// must admit for the request to be admitted; counters increment only on
// admission. A store failure on any window is treated as that window
// passing (fail open).
func (g *Gate) CheckExecutionLimit(ctx context.Context, teacherID, classroomID string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	dailyKey := "daily:" + teacherID
	if count, resetAt, err := g.store.PeekFixedWindow(ctx, dailyKey, 24*time.Hour); err == nil && count+1 > g.cfg.DailyLimit {
		return deny(WindowDailyTeacher, g.cfg.DailyLimit, resetAt)
	}

	hourlyKey := "hourly:" + classroomID
	if classroomID != "" {
		if count, resetAt, err := g.store.PeekFixedWindow(ctx, hourlyKey, time.Hour); err == nil && count+1 > g.cfg.HourlyLimit {
			return deny(WindowHourlyClassroom, g.cfg.HourlyLimit, resetAt)
		}
	}

	burstKey := "burst:" + teacherID
	if count, resetAt, err := g.store.PeekSlidingWindow(ctx, burstKey, g.cfg.BurstWindow); err == nil && count+1 > g.cfg.BurstLimit {
		return deny(WindowBurstTeacher, g.cfg.BurstLimit, resetAt)
	}

	// Every applicable window admits: commit all of them.
	dCount, dReset, _ := g.store.CommitFixedWindow(ctx, dailyKey, 24*time.Hour)
	if classroomID != "" {
		g.store.CommitFixedWindow(ctx, hourlyKey, time.Hour)
	}
	g.store.CommitSlidingWindow(ctx, burstKey, g.cfg.BurstWindow)

	remaining := g.cfg.DailyLimit - dCount
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: g.cfg.DailyLimit, Remaining: remaining, ResetAt: dReset}
}

// CheckIPLimit gates unauthenticated callers by source address.
func (g *Gate) CheckIPLimit(ctx context.Context, ip string) Decision {
	key := "ip:" + ip
	if count, resetAt, err := g.store.PeekSlidingWindow(ctx, key, g.cfg.IPWindow); err == nil && count+1 > g.cfg.IPLimit {
		return deny(WindowIP, g.cfg.IPLimit, resetAt)
	}
	count, resetAt, err := g.store.CommitSlidingWindow(ctx, key, g.cfg.IPWindow)
	if err != nil {
		// Fail open: admit without a reliable count.
		return Decision{Allowed: true, Limit: g.cfg.IPLimit, Remaining: g.cfg.IPLimit, ResetAt: time.Now().Add(g.cfg.IPWindow)}
	}
	remaining := g.cfg.IPLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Limit: g.cfg.IPLimit, Remaining: remaining, ResetAt: resetAt}
}

// GetUsageStats returns a point-in-time snapshot of a teacher's quotas
// without consuming them.
func (g *Gate) GetUsageStats(ctx context.Context, teacherID string) RateLimitSnapshot {
	dCount, dReset, _ := g.store.PeekFixedWindow(ctx, "daily:"+teacherID, 24*time.Hour)
	bCount, bReset, _ := g.store.PeekSlidingWindow(ctx, "burst:"+teacherID, g.cfg.BurstWindow)
	return RateLimitSnapshot{
		Daily: quotaOf(dCount, g.cfg.DailyLimit, dReset),
		Burst: quotaOf(bCount, g.cfg.BurstLimit, bReset),
	}
}

// RateLimitSnapshot is the getUsageStats() response shape.
type RateLimitSnapshot struct {
	Daily Quota
	Burst Quota
}

// Quota is a single window's {limit, remaining, reset}.
type Quota struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func quotaOf(count, limit int, resetAt time.Time) Quota {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Quota{Limit: limit, Remaining: remaining, ResetAt: resetAt}
}

func deny(w Window, limit int, resetAt time.Time) Decision {
	return Decision{Allowed: false, LimitType: w, Limit: limit, Remaining: 0, ResetAt: resetAt}
}
