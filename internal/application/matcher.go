package application

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/file"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/metrics"
)

type LyricMatcher interface {
	// Match tries every search candidate in priority order. It never returns
	// an error: provider failures degrade to NotFound.
	Match(ctx context.Context, query domain.MatchQuery) domain.MatchResult
}

type sleepFunc func(ctx context.Context, d time.Duration) error

type lyricMatcher struct {
	provider http.LyricsProvider
	failures file.FailureLog
	metrics  *metrics.Metrics
	config   config.MatcherConfig
	logger   *log.Logger
	sleep    sleepFunc
}

func NewLyricMatcher(
	provider http.LyricsProvider,
	failures file.FailureLog,
	m *metrics.Metrics,
	cfg config.MatcherConfig,
	logger *log.Logger,
) LyricMatcher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &lyricMatcher{
		provider: provider,
		failures: failures,
		metrics:  m,
		config:   cfg,
		logger:   logger,
		sleep:    sleepContext,
	}
}

func (m *lyricMatcher) Match(ctx context.Context, query domain.MatchQuery) domain.MatchResult {
	for _, candidate := range query.Candidates() {
		if ctx.Err() != nil {
			break
		}
		if doc := m.searchCandidate(ctx, candidate); doc != nil {
			return domain.Found(doc.Lyrics, candidate)
		}
	}

	m.recordFailure(query)
	return domain.NotFound()
}

// searchCandidate retries only on rate limiting, sleeping base*2^attempt
// between attempts. Any other error abandons the candidate.
func (m *lyricMatcher) searchCandidate(ctx context.Context, c domain.SearchCandidate) *domain.LyricsDocument {
	for attempt := 0; attempt < m.config.MaxRetries; attempt++ {
		doc, err := m.search(ctx, c)
		if err == nil {
			if doc.HasLyrics() {
				m.metrics.ProviderSearch(metrics.SearchHit)
				return doc
			}
			m.metrics.ProviderSearch(metrics.SearchMiss)
			return nil
		}

		if !domain.IsRateLimited(err) {
			m.metrics.ProviderSearch(metrics.SearchError)
			m.logger.Error("lyrics search failed", "title", c.Title, "artist", c.Artist, "err", err)
			return nil
		}

		m.metrics.ProviderSearch(metrics.SearchRateLimited)
		if attempt == m.config.MaxRetries-1 {
			m.logger.Warn("rate limit retries exhausted", "title", c.Title, "artist", c.Artist, "attempts", m.config.MaxRetries)
			return nil
		}

		wait := m.config.BaseBackoff * time.Duration(1<<attempt)
		m.logger.Warn("rate limited, backing off",
			"title", c.Title, "artist", c.Artist,
			"wait", wait, "attempt", attempt+1, "max", m.config.MaxRetries)
		m.metrics.ProviderRetry()

		if err := m.sleep(ctx, wait); err != nil {
			return nil
		}
	}
	return nil
}

func (m *lyricMatcher) search(ctx context.Context, c domain.SearchCandidate) (*domain.LyricsDocument, error) {
	if m.config.SearchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.SearchTimeout)
		defer cancel()
	}
	return m.provider.Search(ctx, c.Title, c.Artist)
}

func (m *lyricMatcher) recordFailure(query domain.MatchQuery) {
	entry := domain.NewUnresolvedEntry(query.Artist, query.Title)
	if err := m.failures.Append(entry); err != nil {
		m.logger.Error("failed to record unresolved track", "title", query.Title, "err", err)
	}
	m.logger.Info("no lyrics found", "title", query.Title, "artist", query.Artist)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
