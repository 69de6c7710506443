package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/civiceg/voterlookup/api"
	"github.com/civiceg/voterlookup/api/handler"
	"github.com/civiceg/voterlookup/cache"
	"github.com/civiceg/voterlookup/config"
	"github.com/civiceg/voterlookup/district"
	"github.com/civiceg/voterlookup/gate"
	"github.com/civiceg/voterlookup/metrics"
	"github.com/civiceg/voterlookup/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("voterlookup starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxConcurrent", cfg.Gate.MaxConcurrent,
	)

	// ── 3. Initialise metrics ────────────────────────────────────────
	m := metrics.New()

	// ── 4. Initialise scraper (launches browser) ────────────────────
	// A browser failure keeps the server up: health answers 503 and the
	// lookup routes report SERVICE_UNAVAILABLE until a restart.
	var rt handler.Retriever
	var sp handler.StatsProvider
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Gate, m)
	if err != nil {
		slog.Error("failed to initialise scraper, serving degraded", "error", err)
	} else {
		defer sc.Close()
		rt = sc
		sp = sc
	}

	// ── 5. Initialise admission control ──────────────────────────────
	var admitter gate.Admitter
	if cfg.Gate.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Gate.RedisAddr,
			Password: cfg.Gate.RedisPassword,
		})
		admitter = gate.NewRedisWindow(rdb, cfg.Gate.Quota, cfg.Gate.Window)
		slog.Info("rate limiting via redis", "addr", cfg.Gate.RedisAddr)
	} else {
		admitter = gate.NewMemoryWindow(cfg.Gate.Quota, cfg.Gate.Window)
	}

	// ── 6. Initialise cache and district policy ─────────────────────
	var cc *cache.Cache
	if cfg.Cache.MaxEntries > 0 {
		cc = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	df := district.NewFilter(cfg.Districts.Allowed)

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(rt, sp, admitter, df, cc, m, cfg, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close() runs via defer — drains page pool and kills Chrome.
	slog.Info("voterlookup stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
