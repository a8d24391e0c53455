package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eldtechnologies/memorywall/internal/metrics"
	"github.com/eldtechnologies/memorywall/internal/models"
	"github.com/eldtechnologies/memorywall/internal/store"
)

const configErrorMessage = "Server configuration error."

// DeleteResponse is the answer to both single and bulk deletes.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message,omitempty"`
}

// ListMemories returns the whole wall, newest first.
func (h *Handler) ListMemories(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.logger.Error().Msg("memories requested but no database is configured")
		h.Error(w, http.StatusInternalServerError, configErrorMessage)
		return
	}
	ctx := r.Context()
	w.Header().Set("Cache-Control", "no-cache")

	if h.redis != nil {
		cached, err := h.redis.GetCachedMemories(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("memories cache read failed")
		}
		if cached != nil {
			metrics.ListCacheLookups.WithLabelValues("hit").Inc()
			h.JSON(w, http.StatusOK, cached)
			return
		}
		metrics.ListCacheLookups.WithLabelValues("miss").Inc()
	}

	// Taken before the query so a write landing meanwhile keeps this
	// result out of the cache.
	var version int64
	cacheable := h.redis != nil
	if cacheable {
		v, err := h.redis.MemoriesVersion(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("memories cache version read failed")
			cacheable = false
		}
		version = v
	}

	start := time.Now()
	memories, err := h.db.ListMemories(ctx)
	observe("list", start)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch memories")
		h.Error(w, http.StatusInternalServerError, "Failed to fetch memories.")
		return
	}

	if cacheable {
		err := h.redis.SetCachedMemories(ctx, version, memories)
		switch {
		case errors.Is(err, store.ErrStaleCache):
			h.logger.Debug().Msg("memories changed during list, not caching")
		case err != nil:
			h.logger.Warn().Err(err).Msg("memories cache write failed")
		}
	}

	h.JSON(w, http.StatusOK, memories)
}

// CreateMemory stores a new post and answers with it, id included.
func (h *Handler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.Error(w, http.StatusInternalServerError, configErrorMessage)
		return
	}

	var req models.NewMemory
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	req.Author = sanitizeName(req.Author)
	req.PhotoURL = strings.TrimSpace(req.PhotoURL)
	if req.Message == "" || req.Author == "" || req.PhotoURL == "" {
		h.Error(w, http.StatusBadRequest, "message, author, and photoUrl are required")
		return
	}

	start := time.Now()
	memory, err := h.db.CreateMemory(r.Context(), req)
	observe("create", start)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to save memory")
		h.Error(w, http.StatusInternalServerError, "Failed to save memory.")
		return
	}

	h.invalidate(r)
	metrics.MemoriesCreated.Inc()

	h.JSON(w, http.StatusCreated, memory)
}

// DeleteMemories deletes the post named by ?id=, or every post when the
// query carries no id.
func (h *Handler) DeleteMemories(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		h.Error(w, http.StatusInternalServerError, configErrorMessage)
		return
	}
	ctx := r.Context()

	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		start := time.Now()
		n, err := h.db.DeleteAllMemories(ctx)
		observe("delete_all", start)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to delete all memories")
			h.Error(w, http.StatusInternalServerError, "Failed to delete memories.")
			return
		}
		h.invalidate(r)
		metrics.MemoriesDeleted.WithLabelValues("all").Add(float64(n))
		h.logger.Info().Int64("count", n).Msg("all memories deleted")

		h.JSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "All memories have been deleted."})
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid id format")
		return
	}

	start := time.Now()
	removed, err := h.db.DeleteMemory(ctx, id)
	observe("delete", start)
	if err != nil {
		h.logger.Error().Err(err).Int64("id", id).Msg("failed to delete memory")
		h.Error(w, http.StatusInternalServerError, "Failed to delete memory.")
		return
	}
	if removed {
		h.invalidate(r)
		metrics.MemoriesDeleted.WithLabelValues("one").Inc()
	}

	h.JSON(w, http.StatusOK, DeleteResponse{Success: true, ID: id})
}

func (h *Handler) invalidate(r *http.Request) {
	if h.redis == nil {
		return
	}
	if err := h.redis.InvalidateMemories(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("memories cache invalidation failed")
	}
}
