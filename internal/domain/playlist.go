package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxTracksLimit = 30

	DocumentStatusCrawled  = "crawled"
	DocumentStatusAnalyzed = "analyzed"
)

var (
	playlistURLRegex = regexp.MustCompile(`playlist/([a-zA-Z0-9]+)`)
	playlistIDRegex  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	requestZone = time.FixedZone("KST", 9*60*60)
)

// PlaylistDocument is the aggregate persisted once per successful batch.
type PlaylistDocument struct {
	ID                  string         `json:"id" dynamodbav:"id"`
	PlaylistID          string         `json:"playlist_id" dynamodbav:"playlist_id"`
	Tracks              []*TrackRecord `json:"tracks" dynamodbav:"tracks"`
	CreatedAt           time.Time      `json:"created_at" dynamodbav:"created_at"`
	OriginalTrackCount  int            `json:"original_track_count" dynamodbav:"original_track_count"`
	ProcessedTrackCount int            `json:"processed_track_count" dynamodbav:"processed_track_count"`
	RequestOrigin       string         `json:"request_origin,omitempty" dynamodbav:"request_origin,omitempty"`
	Status              string         `json:"status" dynamodbav:"status"`
	AnalyzedAt          *time.Time     `json:"analyzed_at,omitempty" dynamodbav:"analyzed_at,omitempty"`
}

func NewPlaylistDocument(requestID, playlistID, origin string, originalCount, processedCount int, tracks []*TrackRecord) (*PlaylistDocument, error) {
	if requestID == "" {
		return nil, errors.New("request ID cannot be empty")
	}
	if playlistID == "" {
		return nil, errors.New("playlist ID cannot be empty")
	}
	if processedCount > originalCount {
		return nil, fmt.Errorf("processed count %d exceeds original count %d", processedCount, originalCount)
	}
	if processedCount > MaxTracksLimit {
		return nil, fmt.Errorf("processed count %d exceeds limit %d", processedCount, MaxTracksLimit)
	}
	if tracks == nil {
		tracks = make([]*TrackRecord, 0)
	}

	return &PlaylistDocument{
		ID:                  requestID,
		PlaylistID:          playlistID,
		Tracks:              tracks,
		CreatedAt:           time.Now().UTC(),
		OriginalTrackCount:  originalCount,
		ProcessedTrackCount: processedCount,
		RequestOrigin:       origin,
		Status:              DocumentStatusCrawled,
	}, nil
}

// FindTrack looks a track up by its canonical key (the normalized title).
func (d *PlaylistDocument) FindTrack(key string) (*TrackRecord, error) {
	for _, t := range d.Tracks {
		if t.Key() == key {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, key)
}

func (d *PlaylistDocument) MarkAnalyzed(at time.Time) {
	d.Status = DocumentStatusAnalyzed
	d.AnalyzedAt = &at
}

func (d *PlaylistDocument) ResolvedCount() int {
	n := 0
	for _, t := range d.Tracks {
		if t.IsResolved() {
			n++
		}
	}
	return n
}

// ParsePlaylistID accepts a bare playlist ID or a catalog playlist URL.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: playlist reference is empty", ErrInvalidInput)
	}
	if m := playlistURLRegex.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if playlistIDRegex.MatchString(ref) {
		return ref, nil
	}
	return "", fmt.Errorf("%w: not a playlist URL or ID: %q", ErrInvalidInput, ref)
}

// NewRequestID builds {playlist}_{YYYY_MM_DD_HH_MM}_{uuid} with the timestamp in KST.
func NewRequestID(playlistID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", playlistID, now.In(requestZone).Format("2006_01_02_15_04"), uuid.New().String())
}
