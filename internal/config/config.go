// Package config loads the cronofy-pages CLI configuration from an optional
// YAML file and environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/cronofy-client/pkg/cache"
	"github.com/Sternrassler/cronofy-client/pkg/client"
	"github.com/Sternrassler/cronofy-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent identifies the CLI when no user agent is configured.
const DefaultUserAgent = "cronofy-pages/0.1.0"

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL     = "CRONOFY_BASE_URL"
	EnvUserAgent   = "CRONOFY_USER_AGENT"
	EnvTimeout     = "CRONOFY_TIMEOUT"
	EnvAccessToken = "CRONOFY_ACCESS_TOKEN"
	EnvRedisURL    = "REDIS_URL"
	EnvCacheTTL    = "CACHE_TTL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvMetricsAddr = "METRICS_ADDR"
)

// Config is the CLI configuration.
type Config struct {
	BaseURL   string            `yaml:"base_url"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`
	Timeout   time.Duration     `yaml:"timeout"`

	// RedisAddr enables response caching. Either host:port or a redis:// URL.
	RedisAddr string        `yaml:"redis_addr"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`

	// MetricsAddr starts a Prometheus /metrics server when set.
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:   client.DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Headers:   map[string]string{},
		Timeout:   30 * time.Second,
		CacheTTL:  cache.DefaultTTL,
		LogLevel:  string(logging.LevelInfo),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found through lookup
// (normally os.LookupEnv). Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := get(EnvUserAgent); ok {
		c.UserAgent = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := get(EnvAccessToken); ok {
		if c.Headers == nil {
			c.Headers = map[string]string{}
		}
		c.Headers["Authorization"] = "Bearer " + v
	}
	if v, ok := get(EnvRedisURL); ok {
		c.RedisAddr = v
	}
	if v, ok := get(EnvCacheTTL); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheTTL, err)
		}
		c.CacheTTL = d
	}
	if v, ok := get(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := get(EnvMetricsAddr); ok {
		c.MetricsAddr = v
	}
	return nil
}

// Validate checks the configuration for values the client would reject.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an absolute http(s) url (got %q)", c.BaseURL))
	}
	if strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0 (got %s)", c.Timeout))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must be >= 0 (got %s)", c.CacheTTL))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	if c.RedisAddr != "" {
		if _, err := c.RedisOptions(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RedisOptions returns connection options for RedisAddr.
func (c Config) RedisOptions() (*redis.Options, error) {
	if strings.Contains(c.RedisAddr, "://") {
		opts, err := redis.ParseURL(c.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("redis_addr: %w", err)
		}
		return opts, nil
	}
	if c.RedisAddr == "" {
		return nil, errors.New("redis_addr is empty")
	}
	return &redis.Options{Addr: c.RedisAddr}, nil
}

// ClientConfig converts the configuration to a client.Config without a cache backend.
func (c Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.BaseURL, c.UserAgent)
	cfg.Timeout = c.Timeout
	cfg.CacheTTL = c.CacheTTL
	for key, value := range c.Headers {
		cfg.Header.Set(key, value)
	}
	return cfg
}
