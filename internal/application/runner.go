package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/dynamodb"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/redis"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/metrics"
)

const (
	defaultConcurrency = 5
	persistTimeout     = 30 * time.Second
)

type BatchRunner interface {
	// Run fetches the playlist, processes a capped sample of its tracks and
	// persists exactly one document. Partial track failures never fail the run.
	Run(ctx context.Context, job *domain.CrawlJob) (*domain.PlaylistDocument, error)
}

type batchRunner struct {
	catalog     http.CatalogClient
	processor   TrackProcessor
	repo        dynamodb.PlaylistRepository
	statusStore redis.StatusStore
	metrics     *metrics.Metrics
	config      config.BatchConfig
	logger      *log.Logger
	perm        func(n int) []int
}

func NewBatchRunner(
	catalog http.CatalogClient,
	processor TrackProcessor,
	repo dynamodb.PlaylistRepository,
	statusStore redis.StatusStore,
	m *metrics.Metrics,
	cfg config.BatchConfig,
	logger *log.Logger,
) BatchRunner {
	if cfg.MaxTracks <= 0 || cfg.MaxTracks > domain.MaxTracksLimit {
		cfg.MaxTracks = domain.MaxTracksLimit
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &batchRunner{
		catalog:     catalog,
		processor:   processor,
		repo:        repo,
		statusStore: statusStore,
		metrics:     m,
		config:      cfg,
		logger:      logger,
		perm:        rand.Perm,
	}
}

func (r *batchRunner) Run(ctx context.Context, job *domain.CrawlJob) (doc *domain.PlaylistDocument, err error) {
	crawl, err := domain.NewCrawl(job)
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl: %w", err)
	}

	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic during crawl", "id", crawl.ID, "panic", rec)
			doc, err = nil, r.handleError(ctx, crawl, "internal error", fmt.Errorf("%v", rec))
		}
		status := metrics.BatchCompleted
		if err != nil {
			status = metrics.BatchFailed
		}
		r.metrics.BatchFinished(status, time.Since(started))
	}()

	if existing := r.existing(ctx, crawl.ID); existing != nil {
		r.logger.Info("crawl already stored, skipping", "id", crawl.ID)
		return existing, nil
	}

	crawl.StartFetching()
	r.updateStatus(ctx, crawl)

	tracks, err := r.catalog.PlaylistTracks(ctx, crawl.PlaylistID)
	if err != nil {
		return nil, r.handleError(ctx, crawl, "failed to fetch playlist", err)
	}
	if len(tracks) == 0 {
		return nil, r.handleError(ctx, crawl, "failed to fetch playlist", domain.ErrNoTracks)
	}

	originalCount := len(tracks)
	tracks = r.sampleTracks(tracks)
	if len(tracks) < originalCount {
		r.logger.Info("playlist exceeds track limit, sampling",
			"id", crawl.ID, "found", originalCount, "limit", r.config.MaxTracks)
	}

	crawl.StartMatching(originalCount, len(tracks))
	r.updateStatus(ctx, crawl)

	records := r.processTracks(ctx, tracks, func(processed, resolved, unresolved, skipped int) {
		crawl.UpdateProgress(processed, resolved, unresolved, skipped)
		r.updateStatus(ctx, crawl)
	})

	crawl.StartPersisting()
	r.updateStatus(ctx, crawl)

	doc, err = domain.NewPlaylistDocument(crawl.ID, crawl.PlaylistID, crawl.ClientOrigin, originalCount, len(records), records)
	if err != nil {
		return nil, r.handleError(ctx, crawl, "failed to build document", err)
	}

	if err := r.persist(ctx, doc); err != nil {
		if !errors.Is(err, dynamodb.ErrDocumentExists) {
			return nil, r.handleError(ctx, crawl, "failed to persist document", err)
		}
		// A redelivered copy of this job stored the document first.
		r.logger.Info("crawl document stored by another delivery", "id", crawl.ID)
		if stored := r.existing(ctx, crawl.ID); stored != nil {
			doc = stored
		}
	}

	crawl.Complete()
	r.updateStatus(ctx, crawl)

	r.logger.Infof("crawl %s completed: %d/%d tracks resolved (%d in playlist)",
		crawl.ID, doc.ResolvedCount(), doc.ProcessedTrackCount, doc.OriginalTrackCount)

	return doc, nil
}

// sampleTracks returns a uniform random sample of MaxTracks tracks when the
// playlist is larger than the cap, and the input unchanged otherwise.
func (r *batchRunner) sampleTracks(tracks []*domain.CatalogTrack) []*domain.CatalogTrack {
	if len(tracks) <= r.config.MaxTracks {
		return tracks
	}

	idx := r.perm(len(tracks))[:r.config.MaxTracks]
	sampled := make([]*domain.CatalogTrack, 0, r.config.MaxTracks)
	for _, i := range idx {
		sampled = append(sampled, tracks[i])
	}
	return sampled
}

func (r *batchRunner) processTracks(
	ctx context.Context,
	tracks []*domain.CatalogTrack,
	onProgress func(processed, resolved, unresolved, skipped int),
) []*domain.TrackRecord {
	results := make(chan TrackResult, len(tracks))
	sem := make(chan struct{}, r.config.Concurrency)
	var wg sync.WaitGroup

	for _, track := range tracks {
		wg.Add(1)
		go func(t *domain.CatalogTrack) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results <- r.processor.Process(ctx, t)
		}(track)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	records := make([]*domain.TrackRecord, 0, len(tracks))
	processed, resolved, unresolved, skipped := 0, 0, 0, 0

	for result := range results {
		processed++

		switch {
		case result.Skipped():
			skipped++
		case result.Record.IsResolved():
			resolved++
			records = append(records, result.Record)
		default:
			unresolved++
			records = append(records, result.Record)
		}

		if onProgress != nil {
			onProgress(processed, resolved, unresolved, skipped)
		}
	}

	return records
}

// existing returns the stored document for id, or nil when there is none or
// the lookup fails.
func (r *batchRunner) existing(ctx context.Context, id string) *domain.PlaylistDocument {
	doc, err := r.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			r.logger.Warn("failed to look up stored document", "id", id, "err", err)
		}
		return nil
	}
	return doc
}

// persist outlives the job deadline so a run that finished matching late
// still stores what it collected.
func (r *batchRunner) persist(ctx context.Context, doc *domain.PlaylistDocument) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	return r.repo.Create(ctx, doc)
}

func (r *batchRunner) handleError(ctx context.Context, crawl *domain.Crawl, message string, err error) error {
	wrapped := fmt.Errorf("%s: %w", message, err)

	crawl.Fail(wrapped.Error())
	r.updateStatus(ctx, crawl)

	r.logger.Error("crawl failed", "id", crawl.ID, "playlist", crawl.PlaylistID, "err", wrapped)
	return wrapped
}

func (r *batchRunner) updateStatus(ctx context.Context, crawl *domain.Crawl) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := r.statusStore.Set(ctx, redis.NewStatusFromCrawl(crawl)); err != nil {
		r.logger.Warn("failed to update crawl status", "id", crawl.ID, "err", err)
	}
}
