package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
)

func TestCachedProvider_HitSkipsProvider(t *testing.T) {
	cache := newFakeCache()
	cache.docs["Stay|The Kid LAROI"] = lyricsDoc("Stay", "cached lyrics")
	next := newFakeProvider()

	doc, err := NewCachedProvider(next, cache, testLogger()).Search(context.Background(), "Stay", "The Kid LAROI")

	require.NoError(t, err)
	assert.Equal(t, "cached lyrics", doc.Lyrics)
	assert.Empty(t, next.Calls())
}

func TestCachedProvider_MissStoresResult(t *testing.T) {
	cache := newFakeCache()
	next := newFakeProvider().script("Stay", "The Kid LAROI", searchReply{doc: lyricsDoc("Stay", "fresh")})
	provider := NewCachedProvider(next, cache, testLogger())

	doc, err := provider.Search(context.Background(), "Stay", "The Kid LAROI")
	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.Lyrics)
	assert.Equal(t, 1, cache.sets)

	_, err = provider.Search(context.Background(), "Stay", "The Kid LAROI")
	require.NoError(t, err)
	assert.Len(t, next.Calls(), 1)
}

func TestCachedProvider_DoesNotCacheMisses(t *testing.T) {
	cache := newFakeCache()

	doc, err := NewCachedProvider(newFakeProvider(), cache, testLogger()).Search(context.Background(), "Nope", "Nobody")

	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Zero(t, cache.sets)
}

func TestCachedProvider_CacheErrorFallsBack(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("connection refused")
	next := newFakeProvider().script("Stay", "The Kid LAROI", searchReply{doc: lyricsDoc("Stay", "fresh")})

	doc, err := NewCachedProvider(next, cache, testLogger()).Search(context.Background(), "Stay", "The Kid LAROI")

	require.NoError(t, err)
	assert.Equal(t, "fresh", doc.Lyrics)
}

func TestCachedProvider_PropagatesRateLimit(t *testing.T) {
	next := newFakeProvider().script("Stay", "The Kid LAROI", searchReply{err: rateLimited()})

	_, err := NewCachedProvider(next, newFakeCache(), testLogger()).Search(context.Background(), "Stay", "The Kid LAROI")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
