// Package config loads ontap settings from an optional YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/cache"
	"github.com/Sternrassler/ontap-client/pkg/client"
	"github.com/Sternrassler/ontap-client/pkg/fanout"
	"github.com/Sternrassler/ontap-client/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvAPIKey     = "ONTAP_API_KEY"
	EnvBaseURL    = "ONTAP_BASE_URL"
	EnvRedisURL   = "REDIS_URL"
	EnvCacheDB    = "CACHE_DB_PATH"
	EnvLogLevel   = "LOG_LEVEL"
	EnvPort       = "PORT"
)

// Config is the full application configuration.
type Config struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	DeviceID string        `yaml:"device_id"`
	Timeout  time.Duration `yaml:"timeout"`

	Cache  CacheConfig  `yaml:"cache"`
	Fanout FanoutConfig `yaml:"fanout"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// CacheConfig selects the cache tiers. The in-process tier is always first
// and, like the durable tiers, drops entries after TTL.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	RedisURL   string        `yaml:"redis_url"`
	SQLitePath string        `yaml:"sqlite_path"`
	Backfill   bool          `yaml:"backfill"`
	Strict     bool          `yaml:"strict"`
}

// FanoutConfig bounds the per-pub taps requests of a query.
type FanoutConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	RateLimit       int           `yaml:"rate_limit"` // requests per minute per IP
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	fo := fanout.DefaultConfig()
	return Config{
		BaseURL: client.DefaultBaseURL,
		Timeout: 30 * time.Second,
		Cache: CacheConfig{
			TTL:      cache.DefaultTTL,
			Backfill: true,
		},
		Fanout: FanoutConfig{
			MaxConcurrency: fo.MaxConcurrency,
			Timeout:        fo.Timeout,
		},
		Server: ServerConfig{
			Port:            "8080",
			RateLimit:       60,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
	}
}

// Load reads path (skipped when empty) over the defaults, applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file at '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(EnvAPIKey, &c.APIKey)
	set(EnvBaseURL, &c.BaseURL)
	set(EnvRedisURL, &c.Cache.RedisURL)
	set(EnvCacheDB, &c.Cache.SQLitePath)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvPort, &c.Server.Port)
}

// Validate checks values that cannot be defaulted. The API key is checked
// by the client, since some commands never reach the catalog.
func (c Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache ttl must be positive"))
	}
	if c.Fanout.MaxConcurrency < 1 {
		errs = append(errs, errors.New("fanout max_concurrency must be at least 1"))
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port %q", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server rate_limit must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ClientConfig returns the catalog client configuration over store.
func (c Config) ClientConfig(store cache.Store) client.Config {
	cfg := client.DefaultConfig(c.APIKey, store)
	cfg.BaseURL = c.BaseURL
	cfg.Timeout = c.Timeout
	cfg.DeviceID = c.DeviceID
	cfg.StrictCache = c.Cache.Strict
	return cfg
}

// FanoutConfig returns the fan-out bounds.
func (c Config) FanoutConfig() fanout.Config {
	return fanout.Config{
		MaxConcurrency: c.Fanout.MaxConcurrency,
		Timeout:        c.Fanout.Timeout,
	}
}

// LoggingConfig returns the pkg/logging configuration. Output is left for
// logging.Setup to default.
func (c Config) LoggingConfig() logging.Config {
	level, _ := logging.ParseLogLevel(c.Log.Level)
	return logging.Config{
		Level:  level,
		Pretty: c.Log.Pretty,
	}
}
