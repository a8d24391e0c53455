package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/memorywall/internal/api/middleware"
	"github.com/eldtechnologies/memorywall/internal/config"
	"github.com/eldtechnologies/memorywall/internal/handlers"
	"github.com/eldtechnologies/memorywall/internal/store"
)

// NewRouter creates and configures the HTTP router. db and redisStore may be
// nil: without db the memories endpoints answer with a configuration error,
// without redisStore there is no list cache and no rate limiting.
func NewRouter(logger zerolog.Logger, cfg *config.Config, db store.DataStore, backend string, redisStore *store.RedisStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
		Whitelist:        cfg.RateLimitWhitelist,
		AutoBlockEnabled: cfg.AutoBlockEnabled,
	})
	r.Use(limiter.Middleware)

	// CORS - the wall is served from browser pages on other origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", middleware.AdminKeyHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(db, redisStore, logger, handlers.Options{
		Backend:       backend,
		ConfigError:   cfg.ConfigError(),
		StatusTimeout: cfg.StatusTimeout,
	})

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/api", h.Root)
	r.Get("/health", h.Health)
	r.Get("/status", h.Status)

	r.Route("/memories", func(r chi.Router) {
		r.Use(middleware.RequireAdminKeyForDeleteAll(cfg.AdminKeyHash, logger))

		r.Get("/", h.ListMemories)
		r.Post("/", h.CreateMemory)
		r.Delete("/", h.DeleteMemories)
	})

	return r
}
