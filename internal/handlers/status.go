package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eldtechnologies/memorywall/internal/metrics"
)

// StatusResponse is the answer of the connectivity probe.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Status reports whether the backing store answers within the configured
// timeout.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		metrics.StatusChecks.WithLabelValues("unconfigured").Inc()
		h.JSON(w, http.StatusInternalServerError, StatusResponse{Status: "error", Message: h.opts.ConfigError})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.StatusTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.db.Ping(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err == nil {
		metrics.StatusChecks.WithLabelValues("ok").Inc()
		h.JSON(w, http.StatusOK, StatusResponse{Status: "ok", Message: "Database connection successful."})
		return
	}

	h.logger.Error().Err(err).Msg("status check failed")
	result := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		result = "timeout"
	}
	metrics.StatusChecks.WithLabelValues(result).Inc()
	h.JSON(w, http.StatusInternalServerError, StatusResponse{Status: "error", Message: h.describePingError(err)})
}

// describePingError maps a ping failure to a hint about what is misconfigured.
func (h *Handler) describePingError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Database connection timed out after %s. "+
			"This is a strong indicator that DATABASE_URL is incorrect.", h.opts.StatusTimeout)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "28") {
		return "Authentication failed: the credentials in DATABASE_URL are invalid or have expired."
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return "Connection failed: DATABASE_URL appears to be incorrect."
	}

	return "An unknown error occurred while trying to connect to the database."
}
