package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/memorywall/internal/metrics"
	"github.com/eldtechnologies/memorywall/internal/store"
)

// Options carries the settings handlers need beyond the stores.
type Options struct {
	// Backend names the configured DataStore ("postgres", "sqlite", "memory").
	Backend string

	// ConfigError is reported by /status when no DataStore is configured.
	ConfigError string

	StatusTimeout time.Duration
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	db     store.DataStore
	redis  *store.RedisStore
	logger zerolog.Logger
	opts   Options
}

// NewHandler creates a new Handler with the given stores. db and redis may
// both be nil.
func NewHandler(db store.DataStore, redis *store.RedisStore, logger zerolog.Logger, opts Options) *Handler {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = 5 * time.Second
	}
	if opts.ConfigError == "" {
		opts.ConfigError = "Server configuration error: no database configured."
	}
	return &Handler{db: db, redis: redis, logger: logger, opts: opts}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// observe records how long a store operation took.
func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
	}

	return name
}
