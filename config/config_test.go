package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Cache.LookupTimeout != 50*time.Millisecond {
		t.Errorf("Cache.LookupTimeout = %v, want 50ms", cfg.Cache.LookupTimeout)
	}
	if cfg.Scoring.Scheme != "standard" || cfg.Scoring.Scorer != "rule" {
		t.Errorf("Scoring = %+v, want standard/rule", cfg.Scoring)
	}
	if cfg.Reconnect.MaxAttempts != 5 || cfg.Reconnect.InitialInterval != time.Second {
		t.Errorf("Reconnect = %+v", cfg.Reconnect)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte("cache:\n  backend: badger\n  badger_dir: /tmp/cache\nscoring:\n  scheme: enhanced\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRIPMATE_SERVER__PORT", "9090")
	t.Setenv("TRIPMATE_SERVER__CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Cache.Backend != "badger" || cfg.Cache.BadgerDir != "/tmp/cache" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Scoring.Scheme != "enhanced" {
		t.Errorf("Scheme = %q, want enhanced", cfg.Scoring.Scheme)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown scheme", func(c *Config) { c.Scoring.Scheme = "magic" }},
		{"learned without model", func(c *Config) { c.Scoring.Scorer = "learned" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }},
		{"slow retry", func(c *Config) { c.Retry.Delay = 500 * time.Millisecond }},
		{"zero attempts", func(c *Config) { c.Reconnect.MaxAttempts = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("TRIPMATE_CACHE__REDIS_ADDR"); got != "cache.redis_addr" {
		t.Errorf("envTransformFunc = %q", got)
	}
}
