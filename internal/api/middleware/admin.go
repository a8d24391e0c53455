package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/eldtechnologies/memorywall/internal/metrics"
)

// AdminKeyHeader carries the shared admin key.
const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKeyForDeleteAll guards DELETE requests without an id query
// parameter. The key in AdminKeyHeader is compared against keyHash (bcrypt).
// An empty keyHash disables the guard.
func RequireAdminKeyForDeleteAll(keyHash string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if keyHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Query().Has("id") {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get(AdminKeyHeader)
			if providedKey == "" {
				jsonError(w, http.StatusUnauthorized, "admin key required")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(providedKey)); err != nil {
				logger.Warn().
					Str("type", "security").
					Str("event", "invalid_admin_key").
					Str("ip", RealIP(r)).
					Msg("delete-all rejected")
				metrics.BlockedRequests.WithLabelValues("invalid_admin_key").Inc()
				jsonError(w, http.StatusForbidden, "invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// jsonError sends a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
