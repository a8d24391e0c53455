package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxBodyBytes  = 4_500_000
	defaultStatusTimeout = 5 * time.Second
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	SQLitePath  string
	MemoryStore bool
	RedisURL    string

	MaxBodyBytes  int64
	StatusTimeout time.Duration

	// bcrypt hash guarding DELETE /memories without an id. Empty leaves it open.
	AdminKeyHash string

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       os.Getenv("SQLITE_PATH"),
		MemoryStore:      getEnv("MEMORY_STORE", "false") == "true",
		RedisURL:         os.Getenv("REDIS_URL"),
		AdminKeyHash:     os.Getenv("ADMIN_KEY_HASH"),
		AutoBlockEnabled: getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
		MaxBodyBytes:     defaultMaxBodyBytes,
		StatusTimeout:    defaultStatusTimeout,
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_BODY_BYTES: invalid value %q", v)
		}
		cfg.MaxBodyBytes = n
	}

	if v := os.Getenv("STATUS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("STATUS_TIMEOUT: invalid duration %q", v)
		}
		cfg.StatusTimeout = d
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ConfigError describes why no backing store is configured, or "" if one is.
// The server still starts without one and reports this text from /status.
func (c *Config) ConfigError() string {
	if c.DatabaseURL != "" || c.SQLitePath != "" || c.MemoryStore {
		return ""
	}
	if c.Env == "production" {
		return "Server configuration error: DATABASE_URL is missing."
	}
	return "Server configuration error: no database configured. Set DATABASE_URL, SQLITE_PATH or MEMORY_STORE=true."
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
