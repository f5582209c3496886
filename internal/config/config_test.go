package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"JWT_SECRET", "REDIS_URL", "CACHE_DRIVER", "NOTIFY_DRIVER", "CACHE_TTL", "APP_ENV", "AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.CacheDriver)
	assert.Equal(t, "log", cfg.NotifyDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadPrefersRedisWhenConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.CacheDriver)
	assert.Equal(t, "asynq", cfg.NotifyDriver)
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsRedisDriverWithoutURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CACHE_DRIVER", "redis")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CACHE_DRIVER", "memcached")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_DRIVER")
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("APP_ENV")
	os.Unsetenv("CACHE_TTL")
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nAPP_ENV=development\nCACHE_TTL=90s\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("APP_ENV")
		os.Unsetenv("CACHE_TTL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}
