// Package config loads process configuration from the environment, using
// godotenv to pick up a .env file in development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightpath/orchestrator/internal/ratelimit"
)

// Config is the full set of env-driven knobs: server port, log level,
// rate-limit window caps, per-node timeout, SSE heartbeat interval, and an
// optional Redis URL for the distributed rate-limit store.
type Config struct {
	Port             string
	LogLevel         string
	LogPretty        bool
	RateLimit        ratelimit.Config
	NodeTimeout      time.Duration
	HeartbeatInterval time.Duration
	RedisURL         string
}

// Load reads .env (if present) and then the environment, applying the
// defaults set below for anything unset. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	rl := ratelimit.DefaultConfig()
	rl.DailyLimit = envInt("RATE_LIMIT_DAILY", rl.DailyLimit)
	rl.HourlyLimit = envInt("RATE_LIMIT_HOURLY", rl.HourlyLimit)
	rl.BurstLimit = envInt("RATE_LIMIT_BURST", rl.BurstLimit)
	rl.IPLimit = envInt("RATE_LIMIT_IP", rl.IPLimit)
	rl.BurstWindow = envDuration("RATE_LIMIT_BURST_WINDOW", rl.BurstWindow)
	rl.IPWindow = envDuration("RATE_LIMIT_IP_WINDOW", rl.IPWindow)

	return Config{
		Port:              envString("PORT", "8080"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		LogPretty:         envBool("LOG_PRETTY", true),
		RateLimit:         rl,
		NodeTimeout:       envDuration("NODE_TIMEOUT", 0),
		HeartbeatInterval: envDuration("SSE_HEARTBEAT_INTERVAL", 15*time.Second),
		RedisURL:          envString("REDIS_URL", ""),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
