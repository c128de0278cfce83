package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/signedchess/internal/factory"
)

func validConfig() Config {
	return Config{
		port:           3001,
		storage:        factory.StorageTypeMemory,
		historyTimeout: 5 * time.Second,
		logLevel:       "info",
		logFormat:      "json",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port too low", func(c *Config) { c.port = 0 }, "invalid port"},
		{"port too high", func(c *Config) { c.port = 70000 }, "invalid port"},
		{"unknown storage", func(c *Config) { c.storage = "sqlite" }, "invalid storage type"},
		{"redis without url", func(c *Config) { c.storage = factory.StorageTypeRedis }, "--redis-url"},
		{"redis with url", func(c *Config) {
			c.storage = factory.StorageTypeRedis
			c.redisURL = "redis://localhost:6379"
		}, ""},
		{"zero history timeout", func(c *Config) { c.historyTimeout = 0 }, "history timeout"},
		{"missing history executable", func(c *Config) { c.historyBin = "/nonexistent/movelog" }, "history executable"},
		{"bad log level", func(c *Config) { c.logLevel = "loud" }, "log level"},
		{"bad log format", func(c *Config) { c.logFormat = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 3001, cfg.port)
	assert.Equal(t, factory.StorageTypeMemory, cfg.storage)
	assert.Equal(t, 5*time.Second, cfg.historyTimeout)
	assert.Equal(t, "json", cfg.logFormat)
	assert.NoError(t, cfg.validate())
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("SIGNEDCHESS_PORT", "4000")
	t.Setenv("SIGNEDCHESS_STORAGE", "redis")
	t.Setenv("SIGNEDCHESS_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SIGNEDCHESS_SESSION_TTL", "2h")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 4000, cfg.port)
	assert.Equal(t, factory.StorageTypeRedis, cfg.storage)
	assert.Equal(t, 2*time.Hour, cfg.sessionTTL)

	fc := cfg.factoryConfig(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/1", fc.RedisConfig.URL)
	assert.Equal(t, 2*time.Hour, fc.RedisConfig.SessionTTL)
	assert.Nil(t, fc.HistoryProcess)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SIGNEDCHESS_PORT", "4000")

	cfg := &Config{}
	cmd := newCmd(cfg)
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "5000", "--history-bin", "movelog", "--history-timeout", "2s"}))

	assert.Equal(t, 5000, cfg.port)
	fc := cfg.factoryConfig(nil)
	require.NotNil(t, fc.HistoryProcess)
	assert.Equal(t, "movelog", fc.HistoryProcess.Path)
	assert.Equal(t, 2*time.Second, fc.HistoryProcess.Timeout)
}
