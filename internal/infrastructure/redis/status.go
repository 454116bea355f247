package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "crawl:"
	statusKeySuffix = ":status"
	statusTTL       = 24 * time.Hour
)

type CrawlStatusData struct {
	RequestID        string             `json:"requestId"`
	PlaylistID       string             `json:"playlistId"`
	Status           domain.CrawlStatus `json:"status"`
	Progress         int                `json:"progress"`
	OriginalTracks   int                `json:"originalTracks"`
	TotalTracks      int                `json:"totalTracks"`
	ProcessedTracks  int                `json:"processedTracks"`
	ResolvedTracks   int                `json:"resolvedTracks"`
	UnresolvedTracks int                `json:"unresolvedTracks"`
	SkippedTracks    int                `json:"skippedTracks"`
	Error            string             `json:"error,omitempty"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

type StatusStore interface {
	Set(ctx context.Context, status *CrawlStatusData) error
	Get(ctx context.Context, requestID string) (*CrawlStatusData, error)
	Delete(ctx context.Context, requestID string) error
}

type statusStore struct {
	rdb *redis.Client
}

func NewStatusStore(client Client) StatusStore {
	return &statusStore{rdb: client.GetRDB()}
}

func statusKey(requestID string) string {
	return statusKeyPrefix + requestID + statusKeySuffix
}

func (s *statusStore) Set(ctx context.Context, status *CrawlStatusData) error {
	status.UpdatedAt = time.Now()

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := s.rdb.Set(ctx, statusKey(status.RequestID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	return nil
}

func (s *statusStore) Get(ctx context.Context, requestID string) (*CrawlStatusData, error) {
	data, err := s.rdb.Get(ctx, statusKey(requestID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var status CrawlStatusData
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	return &status, nil
}

func (s *statusStore) Delete(ctx context.Context, requestID string) error {
	if err := s.rdb.Del(ctx, statusKey(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	return nil
}

func NewStatusFromCrawl(c *domain.Crawl) *CrawlStatusData {
	return &CrawlStatusData{
		RequestID:        c.ID,
		PlaylistID:       c.PlaylistID,
		Status:           c.Status,
		Progress:         c.Progress(),
		OriginalTracks:   c.OriginalTracks,
		TotalTracks:      c.TotalTracks,
		ProcessedTracks:  c.ProcessedTracks,
		ResolvedTracks:   c.ResolvedTracks,
		UnresolvedTracks: c.UnresolvedTracks,
		SkippedTracks:    c.SkippedTracks,
		Error:            c.ErrorMessage,
		UpdatedAt:        c.UpdatedAt,
	}
}
