package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/dynamodb"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/http"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/redis"
	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/infrastructure/sqs"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type searchReply struct {
	doc *domain.LyricsDocument
	err error
}

// fakeProvider replays scripted replies per "title|artist". Once a script is
// exhausted its last reply repeats; unscripted candidates find nothing.
type fakeProvider struct {
	mu      sync.Mutex
	replies map[string][]searchReply
	calls   []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{replies: make(map[string][]searchReply)}
}

func (p *fakeProvider) script(title, artist string, replies ...searchReply) *fakeProvider {
	p.replies[title+"|"+artist] = replies
	return p
}

func (p *fakeProvider) Search(ctx context.Context, title, artist string) (*domain.LyricsDocument, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := title + "|" + artist
	p.calls = append(p.calls, key)

	script := p.replies[key]
	if len(script) == 0 {
		return nil, nil
	}
	reply := script[0]
	if len(script) > 1 {
		p.replies[key] = script[1:]
	}
	return reply.doc, reply.err
}

func (p *fakeProvider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func lyricsDoc(title, lyrics string) *domain.LyricsDocument {
	return &domain.LyricsDocument{Title: title, Lyrics: lyrics}
}

func rateLimited() error {
	return domain.NewProviderError("genius", "search", 429, domain.ErrRateLimited)
}

type fakeFailureLog struct {
	mu      sync.Mutex
	entries []domain.UnresolvedEntry
	err     error
}

func (l *fakeFailureLog) Append(entry domain.UnresolvedEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return l.err
}

func (l *fakeFailureLog) Entries() []domain.UnresolvedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.UnresolvedEntry(nil), l.entries...)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fakeCatalog struct {
	tracks []*domain.CatalogTrack
	err    error
	calls  int
}

func (c *fakeCatalog) PlaylistTracks(ctx context.Context, playlistID string) ([]*domain.CatalogTrack, error) {
	c.calls++
	return c.tracks, c.err
}

type fakeRepo struct {
	mu        sync.Mutex
	docs      map[string]*domain.PlaylistDocument
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newFakeRepo(docs ...*domain.PlaylistDocument) *fakeRepo {
	r := &fakeRepo{docs: make(map[string]*domain.PlaylistDocument)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeRepo) Create(ctx context.Context, doc *domain.PlaylistDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("%w: %s", dynamodb.ErrDocumentExists, doc.ID)
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*domain.PlaylistDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (r *fakeRepo) UpdateTracks(ctx context.Context, id string, tracks []*domain.TrackRecord, status string, analyzedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	doc := r.docs[id]
	doc.Tracks = tracks
	doc.Status = status
	doc.AnalyzedAt = analyzedAt
	return nil
}

type fakeStatusStore struct {
	mu       sync.Mutex
	statuses []*redis.CrawlStatusData
}

func (s *fakeStatusStore) Set(ctx context.Context, status *redis.CrawlStatusData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *status
	s.statuses = append(s.statuses, &copied)
	return nil
}

func (s *fakeStatusStore) Get(ctx context.Context, requestID string) (*redis.CrawlStatusData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.statuses) - 1; i >= 0; i-- {
		if s.statuses[i].RequestID == requestID {
			return s.statuses[i], nil
		}
	}
	return nil, nil
}

func (s *fakeStatusStore) Delete(ctx context.Context, requestID string) error {
	return nil
}

func (s *fakeStatusStore) Last() *redis.CrawlStatusData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return nil
	}
	return s.statuses[len(s.statuses)-1]
}

type fakeCache struct {
	mu     sync.Mutex
	docs   map[string]*domain.LyricsDocument
	getErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{docs: make(map[string]*domain.LyricsDocument)}
}

func (c *fakeCache) Get(ctx context.Context, title, artist string) (*domain.LyricsDocument, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.docs[title+"|"+artist], nil
}

func (c *fakeCache) Set(ctx context.Context, title, artist string, doc *domain.LyricsDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.docs[title+"|"+artist] = doc
	return nil
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, text, title string) (*http.Analysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, title)
	if a.err != nil {
		return nil, a.err
	}
	return &http.Analysis{Summary: "about " + title, Keywords: []string{"k1", "k2"}}, nil
}

type fakeRenderer struct {
	calls int
	url   string
	err   error
}

func (r *fakeRenderer) Render(ctx context.Context, text, title, artist string) (string, error) {
	r.calls++
	return r.url, r.err
}

type fakeQueue struct {
	mu         sync.Mutex
	deliveries []*sqs.Delivery
	popErr     error
	acked      []string
	onEmpty    func()
}

func (q *fakeQueue) Push(ctx context.Context, job *domain.CrawlJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deliveries = append(q.deliveries, &sqs.Delivery{Job: job, ReceiptHandle: job.RequestID})
	return nil
}

func (q *fakeQueue) Pop(ctx context.Context, wait time.Duration) (*sqs.Delivery, error) {
	q.mu.Lock()
	if q.popErr != nil {
		err := q.popErr
		q.popErr = nil
		q.mu.Unlock()
		return nil, err
	}
	if len(q.deliveries) == 0 {
		onEmpty := q.onEmpty
		q.mu.Unlock()
		if onEmpty != nil {
			onEmpty()
		}
		return nil, nil
	}
	d := q.deliveries[0]
	q.deliveries = q.deliveries[1:]
	q.mu.Unlock()
	return d, nil
}

func (q *fakeQueue) Ack(ctx context.Context, delivery *sqs.Delivery) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, delivery.ReceiptHandle)
	return nil
}

func (q *fakeQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.deliveries)), nil
}

func (q *fakeQueue) Acked() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.acked...)
}

type fakeRunner struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (r *fakeRunner) Run(ctx context.Context, job *domain.CrawlJob) (*domain.PlaylistDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job.RequestID)
	if r.err != nil {
		return nil, r.err
	}
	return &domain.PlaylistDocument{ID: job.RequestID}, nil
}
