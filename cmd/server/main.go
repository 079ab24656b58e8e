// Command server runs the adaptive-learning orchestrator's HTTP API: load
// config, wire a logger, build the gin router with recovery/logging
// middleware, start an http.Server, and shut down gracefully on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/brightpath/orchestrator/internal/api"
	"github.com/brightpath/orchestrator/internal/config"
	"github.com/brightpath/orchestrator/internal/exec"
	"github.com/brightpath/orchestrator/internal/logging"
	"github.com/brightpath/orchestrator/internal/ratelimit"
	"github.com/brightpath/orchestrator/internal/storage"
	"github.com/brightpath/orchestrator/internal/stream"
	"github.com/brightpath/orchestrator/pkg/orchestrator"
)

func main() {
	cfg := config.Load()
	appLogger := logging.Setup(cfg.LogLevel, cfg.LogPretty)

	appLogger.Info().Str("port", cfg.Port).Msg("starting orchestrator server")

	var rlStore ratelimit.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			appLogger.Error().Err(err).Msg("redis unreachable at startup, rate limiter will fail open")
		}
		rlStore = ratelimit.NewRedisStore(rdb, "orchestrator")
		appLogger.Info().Msg("rate limiter backed by redis")
	} else {
		rlStore = ratelimit.NewMemoryStore()
		appLogger.Info().Msg("rate limiter backed by in-process memory store")
	}
	gate := ratelimit.New(rlStore, cfg.RateLimit)

	schedCfg := exec.DefaultConfig()
	schedCfg.NodeTimeout = cfg.NodeTimeout
	stream.HeartbeatInterval = cfg.HeartbeatInterval

	engine := orchestrator.New(
		orchestrator.WithLogger(appLogger),
		orchestrator.WithSchedulerConfig(schedCfg),
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(appLogger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	store := storage.NewMemoryStore()
	h := api.NewHandler(engine, gate, store, appLogger)
	h.Register(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE responses are long-lived
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server error")
		}
	case sig := <-shutdown:
		appLogger.Info().Str("signal", sig.String()).Msg("shutdown initiated")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			appLogger.Error().Err(err).Msg("graceful shutdown failed, forcing close")
			_ = srv.Close()
		}
		appLogger.Info().Msg("server stopped")
	}
}

// requestLogger logs every request's method, path, status and latency at
// info level.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
