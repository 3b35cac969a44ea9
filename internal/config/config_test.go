package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/cronofy-client/pkg/client"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cronofy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
base_url: https://api-de.cronofy.com
user_agent: acme-sync/2.0
headers:
  Authorization: Bearer file-token
timeout: 10s
redis_addr: localhost:6379
cache_ttl: 5m
log_level: debug
log_pretty: true
metrics_addr: ":9464"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api-de.cronofy.com", cfg.BaseURL)
	assert.Equal(t, "acme-sync/2.0", cfg.UserAgent)
	assert.Equal(t, "Bearer file-token", cfg.Headers["Authorization"])
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.NotNil(t, cfg.Headers)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "unknown_key: 1\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "timeout: soon\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvBaseURL:     "http://localhost:8080",
		EnvUserAgent:   "env-agent/1.0",
		EnvTimeout:     "5s",
		EnvAccessToken: "env-token",
		EnvRedisURL:    "redis://localhost:6379/2",
		EnvCacheTTL:    "90s",
		EnvLogLevel:    "error",
		EnvMetricsAddr: ":9090",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "env-agent/1.0", cfg.UserAgent)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "Bearer env-token", cfg.Headers["Authorization"])
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisAddr)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestApplyEnv_IgnoresEmptyValues(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvBaseURL: "  ",
	})))
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
}

func TestApplyEnv_InvalidDuration(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvTimeout: "forever"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)

	err = cfg.ApplyEnv(envMap(map[string]string{EnvCacheTTL: "1x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvCacheTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "/v1" }, wantErr: "base_url"},
		{name: "empty user agent", mutate: func(c *Config) { c.UserAgent = " " }, wantErr: "user_agent"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: "timeout"},
		{name: "negative cache ttl", mutate: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: "cache_ttl"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "bad redis url", mutate: func(c *Config) { c.RedisAddr = "redis://localhost:6379/not-a-db" }, wantErr: "redis_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedisOptions(t *testing.T) {
	cfg := Default()

	cfg.RedisAddr = "cache.internal:6380"
	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)

	cfg.RedisAddr = "redis://localhost:6379/3"
	opts, err = cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)

	cfg.RedisAddr = ""
	_, err = cfg.RedisOptions()
	require.Error(t, err)
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.Headers["Authorization"] = "Bearer abc"
	cfg.Timeout = 7 * time.Second

	cc := cfg.ClientConfig()
	assert.Equal(t, cfg.BaseURL, cc.BaseURL)
	assert.Equal(t, cfg.UserAgent, cc.UserAgent)
	assert.Equal(t, 7*time.Second, cc.Timeout)
	assert.Equal(t, "Bearer abc", cc.Header.Get("Authorization"))
	assert.Nil(t, cc.Redis)

	_, err := client.New(cc)
	require.NoError(t, err)
}
