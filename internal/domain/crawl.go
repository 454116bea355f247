package domain

import (
	"errors"
	"time"
)

type CrawlStatus string

const (
	CrawlStatusPending    CrawlStatus = "PENDING"
	CrawlStatusFetching   CrawlStatus = "FETCHING"
	CrawlStatusMatching   CrawlStatus = "MATCHING"
	CrawlStatusPersisting CrawlStatus = "PERSISTING"
	CrawlStatusCompleted  CrawlStatus = "COMPLETED"
	CrawlStatusFailed     CrawlStatus = "FAILED"
)

func (s CrawlStatus) IsValid() bool {
	switch s {
	case CrawlStatusPending, CrawlStatusFetching, CrawlStatusMatching,
		CrawlStatusPersisting, CrawlStatusCompleted, CrawlStatusFailed:
		return true
	default:
		return false
	}
}

func (s CrawlStatus) IsTerminal() bool {
	return s == CrawlStatusCompleted || s == CrawlStatusFailed
}

// CrawlJob is the queue message that asks for one playlist to be processed.
type CrawlJob struct {
	RequestID    string    `json:"requestId"`
	PlaylistID   string    `json:"playlistId"`
	ClientOrigin string    `json:"clientOrigin,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewCrawlJob(playlistRef, clientOrigin string) (*CrawlJob, error) {
	playlistID, err := ParsePlaylistID(playlistRef)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &CrawlJob{
		RequestID:    NewRequestID(playlistID, now),
		PlaylistID:   playlistID,
		ClientOrigin: clientOrigin,
		CreatedAt:    now,
	}, nil
}

// Crawl tracks the progress of a single batch run.
type Crawl struct {
	ID               string      `json:"id"`
	PlaylistID       string      `json:"playlistId"`
	ClientOrigin     string      `json:"clientOrigin,omitempty"`
	Status           CrawlStatus `json:"status"`
	OriginalTracks   int         `json:"originalTracks"`
	TotalTracks      int         `json:"totalTracks"`
	ProcessedTracks  int         `json:"processedTracks"`
	ResolvedTracks   int         `json:"resolvedTracks"`
	UnresolvedTracks int         `json:"unresolvedTracks"`
	SkippedTracks    int         `json:"skippedTracks"`
	ErrorMessage     string      `json:"errorMessage,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	CompletedAt      *time.Time  `json:"completedAt,omitempty"`
}

func NewCrawl(job *CrawlJob) (*Crawl, error) {
	if job == nil {
		return nil, errors.New("job cannot be nil")
	}
	if job.RequestID == "" {
		return nil, errors.New("request ID cannot be empty")
	}
	if _, err := ParsePlaylistID(job.PlaylistID); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Crawl{
		ID:           job.RequestID,
		PlaylistID:   job.PlaylistID,
		ClientOrigin: job.ClientOrigin,
		Status:       CrawlStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Crawl) StartFetching() {
	c.Status = CrawlStatusFetching
	c.UpdatedAt = time.Now()
}

func (c *Crawl) StartMatching(originalTracks, totalTracks int) {
	c.Status = CrawlStatusMatching
	c.OriginalTracks = originalTracks
	c.TotalTracks = totalTracks
	c.UpdatedAt = time.Now()
}

func (c *Crawl) UpdateProgress(processed, resolved, unresolved, skipped int) {
	c.ProcessedTracks = processed
	c.ResolvedTracks = resolved
	c.UnresolvedTracks = unresolved
	c.SkippedTracks = skipped
	c.UpdatedAt = time.Now()
}

func (c *Crawl) StartPersisting() {
	c.Status = CrawlStatusPersisting
	c.UpdatedAt = time.Now()
}

func (c *Crawl) Complete() {
	now := time.Now()
	c.Status = CrawlStatusCompleted
	c.UpdatedAt = now
	c.CompletedAt = &now
}

func (c *Crawl) Fail(errorMessage string) {
	now := time.Now()
	c.Status = CrawlStatusFailed
	c.ErrorMessage = errorMessage
	c.UpdatedAt = now
	c.CompletedAt = &now
}

func (c *Crawl) Progress() int {
	if c.TotalTracks == 0 {
		return 0
	}
	return (c.ProcessedTracks * 100) / c.TotalTracks
}
