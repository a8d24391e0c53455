package memwall

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// CacheOptions names the cache slots and bounds what is written to them.
type CacheOptions struct {
	// Key is the local slot holding the serialized collection.
	Key string

	// ResetKey is the session slot raised after a reset-all.
	ResetKey string

	// InlinePhotoLimit is the longest embedded (data:) photo kept in the
	// cache. Longer ones are blanked. Zero blanks every embedded photo.
	InlinePhotoLimit int

	Logger zerolog.Logger
}

// Cache is the read-through snapshot of the wall used for instant paint.
// It is never the source of truth.
type Cache struct {
	local   Storage
	session Storage
	opts    CacheOptions
}

// NewCache builds a Cache over a persistent local slot store and a
// session-lifetime one.
func NewCache(local, session Storage, opts CacheOptions) *Cache {
	if opts.Key == "" {
		opts.Key = "memoriesCache"
	}
	if opts.ResetKey == "" {
		opts.ResetKey = "memoriesReset"
	}
	if session == nil {
		session = NewMemoryStorage()
	}
	return &Cache{local: local, session: session, opts: opts}
}

// Load returns the cached collection sorted newest first. ok is false when
// there is no usable cache: absent, corrupt, or invalidated by a reset.
func (c *Cache) Load(ctx context.Context) (posts []Post, ok bool) {
	if c.ResetPending(ctx) {
		c.drop(ctx)
		return nil, false
	}

	raw, found, err := c.local.Get(ctx, c.opts.Key)
	if err != nil {
		c.opts.Logger.Warn().Err(err).Msg("failed to read memories cache")
		return nil, false
	}
	if !found {
		return nil, false
	}

	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		c.opts.Logger.Warn().Err(err).Msg("memories cache is corrupted, clearing it")
		c.drop(ctx)
		return nil, false
	}
	sortPosts(posts)
	return posts, true
}

// Save overwrites the cache with posts. Failures clear the slot instead of
// surfacing, so the next Load simply sees no cache.
func (c *Cache) Save(ctx context.Context, posts []Post) {
	data, err := json.Marshal(c.compact(posts))
	if err == nil {
		err = c.local.Set(ctx, c.opts.Key, string(data))
	}
	if err != nil {
		c.opts.Logger.Warn().Err(err).Msg("failed to update memories cache, clearing it")
		c.drop(ctx)
	}
}

// Clear empties the cache.
func (c *Cache) Clear(ctx context.Context) {
	c.drop(ctx)
}

// MarkReset tells later loads in this session to distrust any cached data.
func (c *Cache) MarkReset(ctx context.Context) {
	if err := c.session.Set(ctx, c.opts.ResetKey, "true"); err != nil {
		c.opts.Logger.Warn().Err(err).Msg("failed to raise reset flag")
	}
}

// ResetPending reports whether a reset-all happened this session and no
// authoritative load has completed since.
func (c *Cache) ResetPending(ctx context.Context) bool {
	v, ok, err := c.session.Get(ctx, c.opts.ResetKey)
	return err == nil && ok && v == "true"
}

// ClearReset lowers the reset flag.
func (c *Cache) ClearReset(ctx context.Context) {
	if err := c.session.Delete(ctx, c.opts.ResetKey); err != nil {
		c.opts.Logger.Warn().Err(err).Msg("failed to clear reset flag")
	}
}

func (c *Cache) drop(ctx context.Context) {
	if err := c.local.Delete(ctx, c.opts.Key); err != nil {
		c.opts.Logger.Warn().Err(err).Msg("failed to clear memories cache")
	}
}

// compact returns a copy of posts with oversized embedded photos blanked.
func (c *Cache) compact(posts []Post) []Post {
	out := make([]Post, len(posts))
	for i, p := range posts {
		if isEmbedded(p.PhotoURL) && len(p.PhotoURL) > c.opts.InlinePhotoLimit {
			p.PhotoURL = ""
		}
		out[i] = p
	}
	return out
}

func isEmbedded(photoURL string) bool {
	return strings.HasPrefix(photoURL, "data:")
}

// sortPosts orders posts by id, newest first.
func sortPosts(posts []Post) {
	slices.SortFunc(posts, func(a, b Post) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
