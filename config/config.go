// Package config loads server configuration from defaults, an optional YAML
// file and TRIPMATE_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is stripped from environment variables. Sections are separated by "__",
// e.g. TRIPMATE_CACHE__BACKEND=redis.
const EnvPrefix = "TRIPMATE_"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tripmate/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	AWS       AWSConfig       `koanf:"aws"`
	Store     StoreConfig     `koanf:"store"`
	Cache     CacheConfig     `koanf:"cache"`
	Scoring   ScoringConfig   `koanf:"scoring"`
	Retry     RetryConfig     `koanf:"retry"`
	Notify    NotifyConfig    `koanf:"notify"`
	Reconnect ReconnectConfig `koanf:"reconnect"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

type AWSConfig struct {
	Region string `koanf:"region"`
	// Endpoint overrides the service endpoint, e.g. DynamoDB Local.
	Endpoint string `koanf:"endpoint"`
}

type StoreConfig struct {
	Backend         string `koanf:"backend" validate:"oneof=dynamodb memory"`
	SwipesTable     string `koanf:"swipes_table" validate:"required"`
	MatchesTable    string `koanf:"matches_table" validate:"required"`
	RejectionsTable string `koanf:"rejections_table" validate:"required"`
	ProfilesTable   string `koanf:"profiles_table" validate:"required"`
}

type CacheConfig struct {
	Backend       string        `koanf:"backend" validate:"oneof=memory badger redis none"`
	TTL           time.Duration `koanf:"ttl" validate:"gt=0"`
	LookupTimeout time.Duration `koanf:"lookup_timeout" validate:"gt=0"`
	RedisAddr     string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	BadgerDir     string        `koanf:"badger_dir" validate:"required_if=Backend badger"`
}

type ScoringConfig struct {
	Scheme             string        `koanf:"scheme" validate:"oneof=standard enhanced"`
	Scorer             string        `koanf:"scorer" validate:"oneof=rule learned"`
	ModelBucket        string        `koanf:"model_bucket" validate:"required_if=Scorer learned"`
	ModelKey           string        `koanf:"model_key" validate:"required_if=Scorer learned"`
	ModelRefresh       time.Duration `koanf:"model_refresh" validate:"gt=0"`
	BreakerFailures    uint32        `koanf:"breaker_failures" validate:"gt=0"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout" validate:"gt=0"`
}

type RetryConfig struct {
	// Delay before the single retry of match creation. Kept under 200ms.
	Delay time.Duration `koanf:"delay" validate:"gte=0,lt=200ms"`
}

type NotifyConfig struct {
	SendTimeout time.Duration `koanf:"send_timeout" validate:"gt=0"`
}

type ReconnectConfig struct {
	InitialInterval time.Duration `koanf:"initial_interval" validate:"gt=0"`
	MaxInterval     time.Duration `koanf:"max_interval" validate:"gtefield=InitialInterval"`
	MaxAttempts     int           `koanf:"max_attempts" validate:"min=1"`
}

type RateLimitConfig struct {
	SwipesPerSecond float64 `koanf:"swipes_per_second" validate:"gte=0"`
	Burst           int     `koanf:"burst" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Store: StoreConfig{
			Backend:         "dynamodb",
			SwipesTable:     "Swipes",
			MatchesTable:    "Matches",
			RejectionsTable: "Rejections",
			ProfilesTable:   "TravelProfiles",
		},
		Cache: CacheConfig{
			Backend:       "memory",
			TTL:           3600 * time.Second,
			LookupTimeout: 50 * time.Millisecond,
		},
		Scoring: ScoringConfig{
			Scheme:             "standard",
			Scorer:             "rule",
			ModelRefresh:       15 * time.Minute,
			BreakerFailures:    3,
			BreakerOpenTimeout: 30 * time.Second,
		},
		Retry: RetryConfig{
			Delay: 100 * time.Millisecond,
		},
		Notify: NotifyConfig{
			SendTimeout: 2 * time.Second,
		},
		Reconnect: ReconnectConfig{
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			MaxAttempts:     5,
		},
		RateLimit: RateLimitConfig{
			SwipesPerSecond: 5,
			Burst:           10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the first config file found and
// the environment, then validates it.
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if raw, ok := k.Get("server.cors_origins").(string); ok {
		if err := k.Set("server.cors_origins", splitList(raw)); err != nil {
			return nil, fmt.Errorf("failed to set cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// TRIPMATE_CACHE__REDIS_ADDR -> cache.redis_addr
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
