package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "ENV", "DATABASE_URL", "SQLITE_PATH", "MEMORY_STORE", "REDIS_URL",
		"MAX_BODY_BYTES", "STATUS_TIMEOUT", "ADMIN_KEY_HASH", "RATE_LIMIT_WHITELIST", "AUTO_BLOCK_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, int64(4_500_000), cfg.MaxBodyBytes)
	assert.Equal(t, 5*time.Second, cfg.StatusTimeout)
	assert.False(t, cfg.MemoryStore)
	assert.Empty(t, cfg.RateLimitWhitelist)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("STATUS_TIMEOUT", "250ms")
	t.Setenv("MEMORY_STORE", "true")
	t.Setenv("RATE_LIMIT_WHITELIST", " 10.0.0.1, 192.168.0.0/16 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, 250*time.Millisecond, cfg.StatusTimeout)
	assert.True(t, cfg.MemoryStore)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.RateLimitWhitelist)
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_BODY_BYTES", "lots")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("STATUS_TIMEOUT", "-1s")
	_, err = Load()
	assert.Error(t, err)
}

func TestConfigError(t *testing.T) {
	cfg := &Config{Env: "production"}
	assert.Equal(t, "Server configuration error: DATABASE_URL is missing.", cfg.ConfigError())

	cfg.SQLitePath = "/tmp/x.db"
	assert.Empty(t, cfg.ConfigError())

	cfg = &Config{Env: "development", MemoryStore: true}
	assert.Empty(t, cfg.ConfigError())
}
