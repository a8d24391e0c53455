package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/memories", normalizePath("/memories"))
	assert.Equal(t, "/memories", normalizePath("/memories/"))
	assert.Equal(t, "/", normalizePath("/"))
	assert.Equal(t, "other", normalizePath("/wp-admin/setup.php"))
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", RealIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", RealIP(r))

	r.Header.Set("Fly-Client-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", RealIP(r))
}

func TestRateLimiter_Whitelist(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{
		Whitelist: []string{"10.0.0.1", "192.168.0.0/16", "not-a-cidr/99"},
	})

	assert.True(t, rl.isWhitelisted("10.0.0.1"))
	assert.True(t, rl.isWhitelisted("192.168.4.20"))
	assert.False(t, rl.isWhitelisted("172.16.0.1"))
	assert.False(t, rl.isWhitelisted("garbage"))
}

func TestRateLimiter_PassesWithoutRedis(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})
	h := rl.Middleware(okHandler)

	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memories", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_FindLimit(t *testing.T) {
	rl := NewRateLimiter(nil, zerolog.Nop(), RateLimiterConfig{})

	assert.NotNil(t, rl.findLimit(httptest.NewRequest(http.MethodPost, "/memories", nil)))
	assert.NotNil(t, rl.findLimit(httptest.NewRequest(http.MethodGet, "/status", nil)))
	assert.Nil(t, rl.findLimit(httptest.NewRequest(http.MethodGet, "/health", nil)))
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(10)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memories", strings.NewReader(strings.Repeat("x", 11))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"request body too large"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/memories", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateRequest(t *testing.T) {
	h := ValidateRequest(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memories?id=<script>", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/memories?id=12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminKeyForDeleteAll(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("key"), bcrypt.MinCost)
	h := RequireAdminKeyForDeleteAll(string(hash), zerolog.Nop())(okHandler)

	tests := []struct {
		name   string
		method string
		target string
		key    string
		want   int
	}{
		{"list is open", http.MethodGet, "/memories", "", http.StatusOK},
		{"single delete is open", http.MethodDelete, "/memories?id=3", "", http.StatusOK},
		{"delete all without key", http.MethodDelete, "/memories", "", http.StatusUnauthorized},
		{"delete all with wrong key", http.MethodDelete, "/memories", "nope", http.StatusForbidden},
		{"delete all with key", http.MethodDelete, "/memories", "key", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.key != "" {
				r.Header.Set(AdminKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	// No hash configured: nothing is guarded.
	open := RequireAdminKeyForDeleteAll("", zerolog.Nop())(okHandler)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/memories", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
