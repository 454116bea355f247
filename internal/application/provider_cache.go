package application

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/redis"
)

type cachedProvider struct {
	next   http.LyricsProvider
	cache  redis.LyricsCache
	logger *log.Logger
}

// NewCachedProvider serves repeated searches from the lyrics cache. Cache
// errors are logged and never fail a search.
func NewCachedProvider(next http.LyricsProvider, cache redis.LyricsCache, logger *log.Logger) http.LyricsProvider {
	return &cachedProvider{next: next, cache: cache, logger: logger}
}

func (p *cachedProvider) Search(ctx context.Context, title, artist string) (*domain.LyricsDocument, error) {
	cached, err := p.cache.Get(ctx, title, artist)
	if err != nil {
		p.logger.Warn("lyrics cache read failed", "title", title, "err", err)
	} else if cached.HasLyrics() {
		return cached, nil
	}

	doc, err := p.next.Search(ctx, title, artist)
	if err != nil {
		return nil, err
	}

	if doc.HasLyrics() {
		if err := p.cache.Set(ctx, title, artist, doc); err != nil {
			p.logger.Warn("lyrics cache write failed", "title", title, "err", err)
		}
	}
	return doc, nil
}
