// Package config provides configuration parsing for the bunplan service.
//
// Configuration comes from command-line flags with environment variable
// fallbacks, flags taking precedence:
//
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all bunplan service configuration.
type Config struct {
	Listen    string
	LogFormat string
	LogLevel  string

	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	Location  string
	Latitude  float64
	Longitude float64
	Timezone  string

	DBPath          string
	WeatherCacheDir string

	BunCost float64
	MinRows int

	Trees    int
	MaxDepth int
	MinLeaf  int
	Seed     uint64

	Schedule   string
	StaleAfter time.Duration
}

// ParseFlags parses command-line flags and environment variables.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Snapshot storage backend: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", 48*time.Hour), "Redis snapshot TTL")

	flag.StringVar(&cfg.Location, "location", getEnv("LOCATION", "center"), "Outlet name used to key snapshots")
	flag.Float64Var(&cfg.Latitude, "lat", getEnvFloat("LATITUDE", 46.0511), "Outlet latitude")
	flag.Float64Var(&cfg.Longitude, "lon", getEnvFloat("LONGITUDE", 14.5051), "Outlet longitude")
	flag.StringVar(&cfg.Timezone, "timezone", getEnv("TIMEZONE", "Europe/Ljubljana"), "Outlet timezone for the weather outlook")

	flag.StringVar(&cfg.DBPath, "db", getEnv("DB_PATH", "data/bunplan.db"), "Path to the SQLite history database")
	flag.StringVar(&cfg.WeatherCacheDir, "weather-cache", getEnv("WEATHER_CACHE_DIR", "data/weather_cache"), "Directory for cached weather responses (empty disables)")

	flag.Float64Var(&cfg.BunCost, "bun-cost", getEnvFloat("BUN_COST", 0.35), "Cost of one bun, for plan cost estimates")
	flag.IntVar(&cfg.MinRows, "min-rows", getEnvInt("MIN_ROWS", 60), "Minimum historical rows required to train")

	flag.IntVar(&cfg.Trees, "trees", getEnvInt("TREES", 300), "Ensemble size")
	flag.IntVar(&cfg.MaxDepth, "max-depth", getEnvInt("MAX_DEPTH", 8), "Per-tree depth cap")
	flag.IntVar(&cfg.MinLeaf, "min-leaf", getEnvInt("MIN_LEAF", 5), "Minimum samples per leaf")
	flag.Uint64Var(&cfg.Seed, "seed", getEnvUint64("SEED", 42), "Training random seed")

	flag.StringVar(&cfg.Schedule, "schedule", getEnv("SCHEDULE", "0 5 * * *"), "Cron schedule for the daily retrain")
	flag.DurationVar(&cfg.StaleAfter, "stale-after", getEnvDuration("STALE_AFTER", 36*time.Hour), "Age after which a served snapshot is flagged stale")

	flag.Parse()

	return cfg
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Location == "" {
		return fmt.Errorf("location cannot be empty")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", c.Longitude)
	}
	if c.BunCost < 0 {
		return fmt.Errorf("bun cost cannot be negative")
	}
	if c.MinRows <= 0 {
		return fmt.Errorf("min-rows must be > 0")
	}
	if c.Trees <= 0 || c.MaxDepth <= 0 || c.MinLeaf <= 0 {
		return fmt.Errorf("trees, max-depth, and min-leaf must all be > 0")
	}
	if c.Storage != "memory" && c.Storage != "redis" {
		return fmt.Errorf("invalid storage %q (must be memory or redis)", c.Storage)
	}
	if c.Storage == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("redis-addr is required when storage=redis")
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale-after must be > 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
