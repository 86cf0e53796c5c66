package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Errorf("Store.Driver = %q, want postgres", cfg.Store.Driver)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %s, want 10m", cfg.Cache.TTL)
	}
	if cfg.Engine.CandidatePoolSize != 10 || cfg.Engine.MinPopularRatings != 2 {
		t.Errorf("Engine = %+v, want pool 10 and min ratings 2", cfg.Engine)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CANDIDATE_POOL_SIZE", "25")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")
	t.Setenv("RATE_LIMIT_REQUESTS", "0")
	t.Setenv("BATCH_PAGE_SIZE", "50")
	t.Setenv("BATCH_MAX_PAGE_SIZE", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Store.Driver != DriverMemory {
		t.Errorf("Store.Driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %s, want 30s", cfg.Cache.TTL)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Engine.CandidatePoolSize != 25 {
		t.Errorf("CandidatePoolSize = %d, want 25", cfg.Engine.CandidatePoolSize)
	}
	if len(cfg.HTTP.CORSAllowedOrigins) != 2 || cfg.HTTP.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOrigins = %q", cfg.HTTP.CORSAllowedOrigins)
	}
	if cfg.HTTP.RateLimitRequests != 0 {
		t.Errorf("RateLimitRequests = %d, want 0", cfg.HTTP.RateLimitRequests)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Batch.DefaultPageSize != 50 || cfg.Batch.MaxPageSize != 250 || cfg.Batch.MaxPage != 10000 {
		t.Errorf("Batch = %+v, want page size 50, max 250, max page 10000", cfg.Batch)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	yaml := "port: 7070\nstore:\n  driver: mongo\n  mongo_database: catalog\nengine:\n  fetch_concurrency: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7070 || cfg.Store.Driver != DriverMongo || cfg.Store.MongoDatabase != "catalog" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Engine.FetchConcurrency != 2 {
		t.Errorf("FetchConcurrency = %d, want 2", cfg.Engine.FetchConcurrency)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.CandidatePoolSize != 10 {
		t.Errorf("CandidatePoolSize = %d, want default 10", cfg.Engine.CandidatePoolSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Store.DatabaseURL = "" }},
		{"cache without ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero pool", func(c *Config) { c.Engine.CandidatePoolSize = 0 }},
		{"negative rate limit", func(c *Config) { c.HTTP.RateLimitRequests = -1 }},
		{"rate limit without window", func(c *Config) { c.HTTP.RateLimitWindow = 0 }},
		{"zero request timeout", func(c *Config) { c.HTTP.RequestTimeout = 0 }},
		{"zero concurrency", func(c *Config) { c.Engine.FetchConcurrency = 0 }},
		{"zero db pool", func(c *Config) { c.Store.DBPoolSize = 0 }},
		{"db pool past int32", func(c *Config) { c.Store.DBPoolSize = 1 << 31 }},
		{"db pool over max", func(c *Config) { c.Store.DBPoolSize = maxDBPoolSize + 1 }},
		{"zero batch max page", func(c *Config) { c.Batch.MaxPage = 0 }},
		{"batch default above max", func(c *Config) { c.Batch.DefaultPageSize = c.Batch.MaxPageSize + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	memory := defaultConfig()
	memory.Store.Driver = DriverMemory
	memory.Store.DBPoolSize = 1 << 31
	if err := memory.Validate(); err != nil {
		t.Errorf("pool size only applies to postgres: %v", err)
	}
}
