package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/brightpath/orchestrator/internal/config"
)

func TestLoad_DefaultsWhenEnvUnset(t *testing.T) {
	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
	assert.Empty(t, cfg.RedisURL)
	assert.Greater(t, cfg.RateLimit.DailyLimit, 0)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("RATE_LIMIT_DAILY", "7")
	t.Setenv("RATE_LIMIT_BURST_WINDOW", "30s")
	t.Setenv("NODE_TIMEOUT", "2m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := config.Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 7, cfg.RateLimit.DailyLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.BurstWindow)
	assert.Equal(t, 2*time.Minute, cfg.NodeTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("RATE_LIMIT_DAILY", "not-a-number")
	cfg := config.Load()
	assert.Greater(t, cfg.RateLimit.DailyLimit, 0)
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "not-a-duration")
	cfg := config.Load()
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
}
