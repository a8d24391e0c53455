package memwall

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTripBlanksEmbeddedPhotos(t *testing.T) {
	ctx := context.Background()
	cache, _, _ := newTestCache()

	saved := []Post{
		{ID: 2, Message: "héllo\nworld", Author: "Ann", PhotoURL: "data:image/jpeg;base64,/9j/4AAQSkZJRg=="},
		{ID: 7, Message: "second", Author: "Bo", PhotoURL: "https://example.com/p.jpg"},
	}
	cache.Save(ctx, saved)

	got, ok := cache.Load(ctx)
	require.True(t, ok)
	require.Len(t, got, 2)

	assert.Equal(t, Post{ID: 7, Message: "second", Author: "Bo", PhotoURL: "https://example.com/p.jpg"}, got[0])
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, "héllo\nworld", got[1].Message)
	assert.Equal(t, "Ann", got[1].Author)
	assert.Empty(t, got[1].PhotoURL)
}

func TestCache_InlinePhotoLimitKeepsSmallPhotos(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStorage(), nil, CacheOptions{InlinePhotoLimit: 64})

	small := "data:image/png;base64,AAAA"
	cache.Save(ctx, []Post{{ID: 1, PhotoURL: small}})

	got, ok := cache.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, small, got[0].PhotoURL)
}

func TestCache_CorruptSlotIsCleared(t *testing.T) {
	ctx := context.Background()
	cache, local, _ := newTestCache()
	require.NoError(t, local.Set(ctx, "memoriesCache", "{not json"))

	_, ok := cache.Load(ctx)
	assert.False(t, ok)

	_, found, _ := local.Get(ctx, "memoriesCache")
	assert.False(t, found)
}

func TestCache_QuotaFailureClearsSlot(t *testing.T) {
	ctx := context.Background()
	local := NewMemoryStorage()
	cache := NewCache(local, nil, CacheOptions{InlinePhotoLimit: 1 << 20})

	cache.Save(ctx, []Post{{ID: 1, Message: "fits"}})
	_, ok := cache.Load(ctx)
	require.True(t, ok)

	local.Quota = 40
	cache.Save(ctx, []Post{{ID: 2, Message: "this one is far too long for the quota", PhotoURL: "data:x"}})

	_, ok = cache.Load(ctx)
	assert.False(t, ok)
}

func TestCache_ResetFlag(t *testing.T) {
	ctx := context.Background()
	cache, _, session := newTestCache()

	cache.Save(ctx, []Post{{ID: 1}})
	cache.MarkReset(ctx)

	v, ok, _ := session.Get(ctx, "memoriesReset")
	require.True(t, ok)
	assert.Equal(t, "true", v)

	_, ok = cache.Load(ctx)
	assert.False(t, ok)

	cache.ClearReset(ctx)
	cache.Save(ctx, []Post{{ID: 3}})
	got, ok := cache.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, []int64{3}, ids(got))
}

func TestSQLiteStorage_Slots(t *testing.T) {
	ctx := context.Background()
	st, err := NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "cache", "memwall.db"))
	require.NoError(t, err)
	defer st.Close()

	_, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, st.Set(ctx, "k", "v1"))
	require.NoError(t, st.Set(ctx, "k", "v2"))
	v, found, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", v)

	require.NoError(t, st.Delete(ctx, "k"))
	_, found, _ = st.Get(ctx, "k")
	assert.False(t, found)

	st.Quota = 3
	assert.ErrorIs(t, st.Set(ctx, "k", "toolong"), ErrQuotaExceeded)
}

func TestSQLiteStorage_CacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memwall.db")

	st, err := NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	NewCache(st, nil, CacheOptions{}).Save(ctx, []Post{{ID: 1, Message: "a", Author: "b"}, {ID: 4, Message: "c", Author: "d"}})
	require.NoError(t, st.Close())

	st, err = NewSQLiteStorage(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	got, ok := NewCache(st, nil, CacheOptions{}).Load(ctx)
	require.True(t, ok)
	assert.Equal(t, []Post{{ID: 4, Message: "c", Author: "d"}, {ID: 1, Message: "a", Author: "b"}}, got)
}
