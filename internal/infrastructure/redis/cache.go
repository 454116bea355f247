package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/domain"
	"github.com/redis/go-redis/v9"
)

const lyricsKeyPrefix = "lyrics:"

// LyricsCache stores provider documents keyed by (title, artist).
type LyricsCache interface {
	Get(ctx context.Context, title, artist string) (*domain.LyricsDocument, error)
	Set(ctx context.Context, title, artist string, doc *domain.LyricsDocument) error
}

type lyricsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLyricsCache(client Client, ttl time.Duration) LyricsCache {
	return &lyricsCache{rdb: client.GetRDB(), ttl: ttl}
}

func lyricsKey(title, artist string) string {
	norm := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(s)), " ")
	}
	return lyricsKeyPrefix + norm(artist) + "|" + norm(title)
}

func (c *lyricsCache) Get(ctx context.Context, title, artist string) (*domain.LyricsDocument, error) {
	data, err := c.rdb.Get(ctx, lyricsKey(title, artist)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached lyrics: %w", err)
	}

	var doc domain.LyricsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached lyrics: %w", err)
	}
	return &doc, nil
}

func (c *lyricsCache) Set(ctx context.Context, title, artist string, doc *domain.LyricsDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics: %w", err)
	}

	if err := c.rdb.Set(ctx, lyricsKey(title, artist), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache lyrics: %w", err)
	}
	return nil
}
