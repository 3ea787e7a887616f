package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "siteapi", cfg.App.Name)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:3001", cfg.Server.Addr())
	assert.Equal(t, "1M", cfg.Server.BodyLimit)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, ".", cfg.Storage.SeedDir)
	assert.Equal(t, 60, cfg.Security.AdminRateLimitRequests)
	assert.Equal(t, 15*time.Minute, cfg.Security.AdminRateLimitWindow)
	assert.Equal(t, 60*time.Second, cfg.Security.CacheMaxAge)
	assert.Empty(t, cfg.Security.AllowedOrigin)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Watcher.Enabled)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("DATA_DIR", "/var/lib/siteapi")
	t.Setenv("SEED_DIR", "/srv/site")
	t.Setenv("API_TOKEN", "s3cret")
	t.Setenv("ALLOWED_ORIGIN", "https://example.com")
	t.Setenv("ADMIN_RATE_LIMIT_REQUESTS", "5")
	t.Setenv("ADMIN_RATE_LIMIT_WINDOW", "1m")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("WATCH_DATA_DIR", "false")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Addr())
	assert.Equal(t, "/var/lib/siteapi", cfg.Storage.DataDir)
	assert.Equal(t, "/srv/site", cfg.Storage.SeedDir)
	assert.Equal(t, "s3cret", cfg.Auth.APIToken)
	assert.Equal(t, "https://example.com", cfg.Security.AllowedOrigin)
	assert.Equal(t, 5, cfg.Security.AdminRateLimitRequests)
	assert.Equal(t, time.Minute, cfg.Security.AdminRateLimitWindow)
	assert.False(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Watcher.Enabled)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_BlankDataDirFallsBackToDefault(t *testing.T) {
	t.Setenv("DATA_DIR", "   ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.Storage.DataDir)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("port out of range", func(t *testing.T) {
		t.Setenv("PORT", "70000")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("file output without filename", func(t *testing.T) {
		t.Setenv("LOG_OUTPUT", "file")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("production without token", func(t *testing.T) {
		t.Setenv("APP_ENVIRONMENT", "production")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API_TOKEN")
	})

	t.Run("production with hashed token", func(t *testing.T) {
		t.Setenv("APP_ENVIRONMENT", "production")
		t.Setenv("API_TOKEN_HASH", "$2a$10$abcdefghijklmnopqrstuv")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})
}
