package memwall

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Remote is the authoritative record store the Wall synchronizes against.
type Remote interface {
	ListMemories(ctx context.Context) ([]Post, error)
	CreateMemory(ctx context.Context, p NewPost) (*Post, error)
	DeleteMemory(ctx context.Context, id int64) error
	DeleteAllMemories(ctx context.Context) error
}

// Option configures a Wall.
type Option func(*Wall)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Wall) { w.logger = l }
}

// WithOnChange registers a callback receiving a copy of the view every time
// it is published.
func WithOnChange(fn func([]Post)) Option {
	return func(w *Wall) { w.onChange = fn }
}

// WithClock overrides the clock used to derive provisional ids.
func WithClock(now func() time.Time) Option {
	return func(w *Wall) { w.now = now }
}

// Wall holds the client-visible collection of posts. It publishes cached
// data first, then converges on the remote store. Mutations are applied
// optimistically and rolled back when the remote rejects them.
//
// A Load whose fetch resolves while a Create or Delete is in flight may
// overwrite the optimistic change; last writer wins.
type Wall struct {
	remote Remote
	cache  *Cache
	logger zerolog.Logger
	now    func() time.Time

	onChange func([]Post)

	mu       sync.Mutex
	view     []Post
	err      error
	closed   bool
	lastTemp int64
	resets   uint64

	// cacheMu orders snapshot writes against Reset's clear.
	cacheMu sync.Mutex
}

// NewWall creates an empty Wall. cache may be nil to run without one.
func NewWall(remote Remote, cache *Cache, opts ...Option) *Wall {
	w := &Wall{
		remote: remote,
		cache:  cache,
		logger: zerolog.Nop(),
		now:    time.Now,
		view:   []Post{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Posts returns a copy of the published view.
func (w *Wall) Posts() []Post {
	w.mu.Lock()
	defer w.mu.Unlock()
	return clonePosts(w.view)
}

// Err returns the visible fetch error, if any.
func (w *Wall) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close detaches the Wall from its consumer. Operations still in flight
// complete against the remote but no longer touch the view.
func (w *Wall) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// publishLocked replaces the view and returns the snapshot to hand to
// onChange once the lock is released.
func (w *Wall) publishLocked(view []Post) []Post {
	w.view = view
	return clonePosts(view)
}

// saveSnapshot writes posts to the cache unless a Reset completed after the
// snapshot was taken at generation gen. clearReset also drops the session
// reset flag.
func (w *Wall) saveSnapshot(ctx context.Context, gen uint64, posts []Post, clearReset bool) {
	if w.cache == nil {
		return
	}
	w.cacheMu.Lock()
	defer w.cacheMu.Unlock()

	w.mu.Lock()
	stale := w.resets != gen
	w.mu.Unlock()
	if stale {
		w.logger.Debug().Msg("skipping cache write from before a reset")
		return
	}

	w.cache.Save(ctx, posts)
	if clearReset {
		w.cache.ClearReset(ctx)
	}
}

func (w *Wall) notify(snapshot []Post) {
	if w.onChange != nil && snapshot != nil {
		w.onChange(snapshot)
	}
}

// Load paints the cache, if any, then fetches the authoritative collection.
// It returns a *SyncError of kind ErrFetchFailed only when the fetch fails
// and there was no cache to fall back on.
func (w *Wall) Load(ctx context.Context) error {
	var cached []Post
	hasCache := false
	if w.cache != nil {
		cached, hasCache = w.cache.Load(ctx)
	}

	var snap []Post
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	if hasCache {
		snap = w.publishLocked(cached)
	}
	gen := w.resets
	w.mu.Unlock()
	w.notify(snap)

	posts, err := w.remote.ListMemories(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	if w.resets != gen {
		// The fetch may predate the reset; the reset already published.
		w.mu.Unlock()
		w.logger.Debug().Msg("discarding memories fetched before a reset")
		return nil
	}
	if err != nil {
		if hasCache {
			w.mu.Unlock()
			w.logger.Warn().Err(err).Msg("failed to refresh memories, showing cached copy")
			return nil
		}
		w.err = &SyncError{Kind: ErrFetchFailed, Err: err}
		snap = w.publishLocked([]Post{})
		fetchErr := w.err
		w.mu.Unlock()
		w.logger.Error().Err(err).Msg("failed to load memories")
		w.notify(snap)
		return fetchErr
	}

	sortPosts(posts)
	w.err = nil
	snap = w.publishLocked(posts)
	w.mu.Unlock()

	w.saveSnapshot(ctx, gen, posts, true)
	w.notify(snap)
	return nil
}

// mutation is one optimistic change. apply runs before the remote call,
// then exactly one of commit or rollback runs. Each receives the current
// view and returns the next one; commit also reports whether the result
// should be written to the cache. Rollbacks are never cached.
type mutation struct {
	apply        func(view []Post) []Post
	cacheApplied bool
	remote       func(ctx context.Context) error
	commit       func(view []Post) (next []Post, persist bool)
	rollback     func(view []Post) []Post
}

// optimistic runs the three phases of m.
func (w *Wall) optimistic(ctx context.Context, m mutation) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return m.remote(ctx)
	}
	snap := w.publishLocked(m.apply(clonePosts(w.view)))
	gen := w.resets
	w.mu.Unlock()
	if m.cacheApplied {
		w.saveSnapshot(ctx, gen, snap, false)
	}
	w.notify(snap)

	err := m.remote(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return err
	}
	var persist bool
	var next []Post
	if err != nil {
		next = m.rollback(clonePosts(w.view))
	} else {
		next, persist = m.commit(clonePosts(w.view))
	}
	snap = w.publishLocked(next)
	gen = w.resets
	w.mu.Unlock()

	if persist {
		w.saveSnapshot(ctx, gen, snap, false)
	}
	w.notify(snap)
	return err
}

// provisionalID returns a negative id below every id handed out before.
func (w *Wall) provisionalID() int64 {
	id := -w.now().UnixMilli()
	if id >= 0 {
		id = -1
	}
	if w.lastTemp != 0 && id >= w.lastTemp {
		id = w.lastTemp - 1
	}
	w.lastTemp = id
	return id
}

// Create validates p, shows it immediately under a provisional id and
// stores it remotely. On failure the provisional post is withdrawn and a
// *SyncError of kind ErrCreateFailed is returned.
func (w *Wall) Create(ctx context.Context, p NewPost) (Post, error) {
	if err := p.Validate(); err != nil {
		return Post{}, err
	}

	w.mu.Lock()
	tempID := w.provisionalID()
	w.mu.Unlock()

	provisional := Post{ID: tempID, Message: p.Message, Author: p.Author, PhotoURL: p.PhotoURL}
	var saved *Post

	err := w.optimistic(ctx, mutation{
		apply: func(view []Post) []Post {
			return append([]Post{provisional}, view...)
		},
		remote: func(ctx context.Context) error {
			var err error
			saved, err = w.remote.CreateMemory(ctx, p)
			return err
		},
		commit: func(view []Post) ([]Post, bool) {
			replaced := false
			for i := range view {
				if view[i].ID == tempID {
					view[i] = *saved
					replaced = true
					break
				}
			}
			if !replaced && indexOf(view, saved.ID) < 0 {
				view = append(view, *saved)
			}
			sortPosts(view)
			return view, true
		},
		rollback: func(view []Post) []Post {
			return removeID(view, tempID)
		},
	})
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to save memory")
		return Post{}, &SyncError{Kind: ErrCreateFailed, Err: err}
	}

	w.logger.Info().Int64("id", saved.ID).Msg("memory created")
	return *saved, nil
}

// Delete withdraws the post with the given id from the view and the cache,
// then deletes it remotely. On failure the post is restored to the view
// (not the cache) and a *SyncError of kind ErrDeleteFailed is returned.
func (w *Wall) Delete(ctx context.Context, id int64) error {
	var removed *Post

	w.mu.Lock()
	if i := indexOf(w.view, id); i >= 0 {
		p := w.view[i]
		removed = &p
	}
	w.mu.Unlock()

	err := w.optimistic(ctx, mutation{
		apply: func(view []Post) []Post {
			return removeID(view, id)
		},
		cacheApplied: true,
		remote: func(ctx context.Context) error {
			return w.remote.DeleteMemory(ctx, id)
		},
		commit: func(view []Post) ([]Post, bool) {
			return view, false
		},
		rollback: func(view []Post) []Post {
			if removed != nil && indexOf(view, id) < 0 {
				view = append(view, *removed)
				sortPosts(view)
			}
			return view
		},
	})
	if err != nil {
		w.logger.Error().Err(err).Int64("id", id).Msg("failed to delete memory, restored it")
		return &SyncError{Kind: ErrDeleteFailed, Err: err}
	}

	w.logger.Info().Int64("id", id).Msg("memory deleted")
	return nil
}

// Reset deletes every post remotely. On success the view and the cache are
// emptied and the session is flagged so that no later Load trusts a cache
// written before the reset. Loads and mutations that started before the
// reset no longer publish or cache their results.
func (w *Wall) Reset(ctx context.Context) error {
	if err := w.remote.DeleteAllMemories(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to reset memories")
		return &SyncError{Kind: ErrResetFailed, Err: err}
	}

	w.cacheMu.Lock()
	w.mu.Lock()
	w.resets++
	w.mu.Unlock()
	if w.cache != nil {
		w.cache.Clear(ctx)
		w.cache.MarkReset(ctx)
	}
	w.cacheMu.Unlock()

	var snap []Post
	w.mu.Lock()
	if !w.closed {
		w.err = nil
		snap = w.publishLocked([]Post{})
	}
	w.mu.Unlock()
	w.notify(snap)

	w.logger.Info().Msg("all memories deleted")
	return nil
}

func indexOf(posts []Post, id int64) int {
	for i, p := range posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func removeID(posts []Post, id int64) []Post {
	out := posts[:0]
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func clonePosts(posts []Post) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)
	return out
}
