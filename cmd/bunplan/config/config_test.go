package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Listen:     ":8080",
		LogFormat:  "text",
		LogLevel:   "info",
		Storage:    "memory",
		Location:   "center",
		Latitude:   46.0511,
		Longitude:  14.5051,
		Timezone:   "Europe/Ljubljana",
		DBPath:     "data/bunplan.db",
		BunCost:    0.35,
		MinRows:    60,
		Trees:      300,
		MaxDepth:   8,
		MinLeaf:    5,
		Seed:       42,
		Schedule:   "0 5 * * *",
		StaleAfter: 36 * time.Hour,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"redis storage", func(c *Config) { c.Storage = "redis"; c.RedisAddr = "localhost:6379" }, false},
		{"zero bun cost", func(c *Config) { c.BunCost = 0 }, false},
		{"empty location", func(c *Config) { c.Location = "" }, true},
		{"latitude too high", func(c *Config) { c.Latitude = 91 }, true},
		{"latitude too low", func(c *Config) { c.Latitude = -91 }, true},
		{"longitude out of range", func(c *Config) { c.Longitude = 181 }, true},
		{"negative bun cost", func(c *Config) { c.BunCost = -0.1 }, true},
		{"zero min rows", func(c *Config) { c.MinRows = 0 }, true},
		{"zero trees", func(c *Config) { c.Trees = 0 }, true},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }, true},
		{"zero min leaf", func(c *Config) { c.MinLeaf = 0 }, true},
		{"unknown storage", func(c *Config) { c.Storage = "postgres" }, true},
		{"redis without addr", func(c *Config) { c.Storage = "redis"; c.RedisAddr = "" }, true},
		{"bad cron schedule", func(c *Config) { c.Schedule = "every day at five" }, true},
		{"six-field schedule with seconds", func(c *Config) { c.Schedule = "0 0 5 * * *" }, true},
		{"zero stale-after", func(c *Config) { c.StaleAfter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("BUNPLAN_TEST_STR", "hello")
	t.Setenv("BUNPLAN_TEST_INT", "17")
	t.Setenv("BUNPLAN_TEST_UINT", "18446744073709551615") // max uint64
	t.Setenv("BUNPLAN_TEST_FLOAT", "0.5")
	t.Setenv("BUNPLAN_TEST_DUR", "90m")
	t.Setenv("BUNPLAN_TEST_BAD", "not-a-number")

	if got := getEnv("BUNPLAN_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("getEnv() = %q, want hello", got)
	}
	if got := getEnv("BUNPLAN_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnv() unset = %q, want fallback", got)
	}
	if got := getEnvInt("BUNPLAN_TEST_INT", 1); got != 17 {
		t.Errorf("getEnvInt() = %d, want 17", got)
	}
	if got := getEnvInt("BUNPLAN_TEST_BAD", 1); got != 1 {
		t.Errorf("getEnvInt() malformed = %d, want the default 1", got)
	}
	// Seeds above MaxInt64 must survive without truncation.
	if got := getEnvUint64("BUNPLAN_TEST_UINT", 42); got != 18446744073709551615 {
		t.Errorf("getEnvUint64() = %d, want max uint64", got)
	}
	if got := getEnvUint64("BUNPLAN_TEST_BAD", 42); got != 42 {
		t.Errorf("getEnvUint64() malformed = %d, want the default 42", got)
	}
	if got := getEnvUint64("BUNPLAN_TEST_NEG", 42); got != 42 {
		t.Errorf("getEnvUint64() unset = %d, want the default 42", got)
	}
	if got := getEnvFloat("BUNPLAN_TEST_FLOAT", 1); got != 0.5 {
		t.Errorf("getEnvFloat() = %v, want 0.5", got)
	}
	if got := getEnvDuration("BUNPLAN_TEST_DUR", time.Hour); got != 90*time.Minute {
		t.Errorf("getEnvDuration() = %v, want 90m", got)
	}
	if got := getEnvDuration("BUNPLAN_TEST_BAD", time.Hour); got != time.Hour {
		t.Errorf("getEnvDuration() malformed = %v, want the default 1h", got)
	}
}
