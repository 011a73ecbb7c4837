// Package config loads the console-pager configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the application configuration.
//
// Loaded from environment variables using github.com/caarlos0/env. A .env
// file in the working directory is read first when present.
type Config struct {
	// API is the console REST API connection
	API APIConfig

	// Cache selects and configures the shared page cache
	Cache CacheConfig

	// Redis is used when Cache.Backend is "redis"
	Redis RedisConfig `envPrefix:"REDIS_"`

	// PrefetchTimeout bounds each background prefetch.
	PrefetchTimeout time.Duration `env:"PREFETCH_TIMEOUT" envDefault:"15s"`

	Log LogConfig

	// Port is the listen port of the serve command.
	Port string `env:"PORT" envDefault:"8080"`
}

// APIConfig contains the console API client configuration.
type APIConfig struct {
	URL       string        `env:"CONSOLE_API_URL"   envDefault:"http://localhost:8000/api"`
	Token     string        `env:"CONSOLE_API_TOKEN"`
	UserAgent string        `env:"USER_AGENT"        envDefault:"console-pager/0.1.0"`
	Timeout   time.Duration `env:"HTTP_TIMEOUT"      envDefault:"30s"`
}

// CacheConfig contains page cache configuration.
type CacheConfig struct {
	Backend string        `env:"CACHE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"CACHE_TTL"     envDefault:"5m"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URL      string `env:"URL"      envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads the given .env files (default ".env"), skipping missing ones,
// then parses and validates the environment. Variables already set in the
// environment take precedence over .env values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			var pathErr *os.PathError
			if !errors.As(err, &pathErr) {
				return Config{}, fmt.Errorf("load %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize normalizes values loaded from the environment.
func (c *Config) Sanitize() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.API.URL = strings.TrimSpace(c.API.URL)
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return errors.New("CONSOLE_API_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0 (got %s)", c.API.Timeout)
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q (got %q)", BackendMemory, BackendRedis, c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be > 0 (got %s)", c.Cache.TTL)
	}
	if c.PrefetchTimeout <= 0 {
		return fmt.Errorf("PREFETCH_TIMEOUT must be > 0 (got %s)", c.PrefetchTimeout)
	}
	return nil
}
