// Command bunplan runs the bun demand forecasting service.
//
// On each scheduled tick (default: daily at 05:00) it:
//  1. Loads the historical daily aggregate feed from SQLite
//  2. Splits it temporally (last 12 months held out for evaluation)
//  3. Trains the demand model, or reuses the cached one if the data is unchanged
//  4. Evaluates accuracy (MAE/MAPE) on the held-out window
//  5. Fetches the 7-day weather outlook from Open-Meteo
//  6. Projects a 7-day order plan with safety-stock quantities
//  7. Stores the snapshot for the reporting layer
//
// The service exposes an HTTP API (default :8080):
//   - GET /forecast/current?location=<name> - Latest order-plan snapshot
//   - GET /healthz - Health check
//   - GET /metrics - Prometheus metrics
//
// Usage:
//
//	bunplan \
//	  -location=center \
//	  -lat=46.0511 -lon=14.5051 \
//	  -db=data/bunplan.db \
//	  -bun-cost=0.35
//
// Environment variables mirror every flag: LOCATION, LATITUDE, LONGITUDE,
// DB_PATH, BUN_COST, STORAGE, REDIS_ADDR, SCHEDULE, LOG_LEVEL, LOG_FORMAT.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"

	"github.com/zkovac/bunplan/cmd/bunplan/config"
	"github.com/zkovac/bunplan/cmd/bunplan/logger"
	"github.com/zkovac/bunplan/cmd/bunplan/metrics"
	"github.com/zkovac/bunplan/cmd/bunplan/router"
	"github.com/zkovac/bunplan/pkg/forest"
	"github.com/zkovac/bunplan/pkg/history"
	"github.com/zkovac/bunplan/pkg/httpx"
	"github.com/zkovac/bunplan/pkg/storage"
	"github.com/zkovac/bunplan/pkg/weather"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	log.Info("starting bunplan",
		"version", version,
		"location", cfg.Location,
		"schedule", cfg.Schedule,
	)

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		log.Error("failed to open history database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hist := history.New(db)
	if err := hist.Migrate(); err != nil {
		log.Error("failed to migrate history database", "error", err)
		os.Exit(1)
	}

	store, err := newStore(cfg, log)
	if err != nil {
		log.Error("failed to create snapshot store", "error", err)
		os.Exit(1)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("failed to close store", "error", err)
			}
		}()
	}

	weatherOpts := []weather.Option{}
	if cfg.WeatherCacheDir != "" {
		weatherOpts = append(weatherOpts, weather.WithCacheDir(cfg.WeatherCacheDir))
	}
	outlook := weather.NewClient(cfg.Latitude, cfg.Longitude, cfg.Timezone, log, weatherOpts...)

	pipeline := NewPipeline(
		cfg.Location,
		hist,
		outlook,
		store,
		storage.NewModelCache(),
		forest.Config{
			Trees:          cfg.Trees,
			MaxDepth:       cfg.MaxDepth,
			MinLeafSamples: cfg.MinLeaf,
			Seed:           cfg.Seed,
		},
		cfg.BunCost,
		cfg.MinRows,
		log,
		metrics.New(cfg.Location),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := pipeline.Tick(ctx); err != nil {
		log.Error("initial forecast tick failed", "error", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, func() {
		if err := pipeline.Tick(ctx); err != nil {
			log.Error("forecast tick failed", "error", err)
		}
	}); err != nil {
		log.Error("failed to set up schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	mux := router.SetupRoutes(store, cfg.StaleAfter, log)
	handler := httpx.RecoveryMiddleware(log)(httpx.LoggingMiddleware(log)(mux))
	server := httpx.NewServer(cfg.Listen, handler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", "error", err)
		}
	}

	if err := server.Stop(10 * time.Second); err != nil {
		log.Error("failed to stop HTTP server", "error", err)
	}
}

// newStore creates the configured snapshot store backend.
func newStore(cfg *config.Config, log *slog.Logger) (storage.Store, error) {
	if cfg.Storage == "redis" {
		log.Info("using redis snapshot store", "addr", cfg.RedisAddr)
		return storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
	}
	log.Info("using in-memory snapshot store")
	return storage.NewMemoryStore(), nil
}
