package domain

import (
	"errors"
	"strings"
)

type CatalogTrack struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtworkURL string `json:"artworkUrl,omitempty"`
}

func NewCatalogTrack(title, artist string) (*CatalogTrack, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("track title cannot be empty")
	}
	if strings.TrimSpace(artist) == "" {
		return nil, errors.New("track artist cannot be empty")
	}

	return &CatalogTrack{
		Title:  title,
		Artist: artist,
	}, nil
}

func (t *CatalogTrack) WithID(id string) *CatalogTrack {
	t.ID = id
	return t
}

func (t *CatalogTrack) WithArtwork(url string) *CatalogTrack {
	t.ArtworkURL = url
	return t
}

// SearchCandidate is one (title, artist) query sent to the lyrics provider.
type SearchCandidate struct {
	Title  string
	Artist string
}

func (c SearchCandidate) IsValid() bool {
	return c.Title != "" && c.Artist != ""
}

// MatchQuery holds the raw and normalized variants of a single track.
type MatchQuery struct {
	Title          string
	CleanTitle     string
	Artist         string
	ExpandedArtist string
}

func NewMatchQuery(track *CatalogTrack) MatchQuery {
	cleanTitle, expandedArtist := Normalize(track.Title, track.Artist)
	return MatchQuery{
		Title:          track.Title,
		CleanTitle:     cleanTitle,
		Artist:         track.Artist,
		ExpandedArtist: expandedArtist,
	}
}

// Candidates returns the queries in priority order, dropping any with an empty field.
func (q MatchQuery) Candidates() []SearchCandidate {
	ordered := []SearchCandidate{
		{Title: q.CleanTitle, Artist: q.Artist},
		{Title: q.CleanTitle, Artist: q.ExpandedArtist},
		{Title: q.Title, Artist: q.Artist},
		{Title: q.Title, Artist: q.ExpandedArtist},
	}

	candidates := make([]SearchCandidate, 0, len(ordered))
	for _, c := range ordered {
		if c.IsValid() {
			candidates = append(candidates, c)
		}
	}
	return candidates
}

// LyricsDocument is what a lyrics provider returns for a successful search.
type LyricsDocument struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url,omitempty"`
	Lyrics string `json:"lyrics"`
}

func (d *LyricsDocument) HasLyrics() bool {
	return d != nil && strings.TrimSpace(d.Lyrics) != ""
}

type MatchResult struct {
	Found  bool
	Lyrics string
	Source SearchCandidate
}

func Found(lyrics string, source SearchCandidate) MatchResult {
	return MatchResult{Found: true, Lyrics: lyrics, Source: source}
}

func NotFound() MatchResult {
	return MatchResult{}
}

// TrackRecord is the persisted outcome for one catalog track. Lyrics holds the
// cleaned text and is nil when no candidate resolved.
type TrackRecord struct {
	OriginalTitle   string   `json:"original_title" dynamodbav:"original_title"`
	NormalizedTitle string   `json:"normalized_title" dynamodbav:"normalized_title"`
	Artist          string   `json:"artist" dynamodbav:"artist"`
	ExpandedArtist  string   `json:"expanded_artist" dynamodbav:"expanded_artist"`
	Lyrics          *string  `json:"lyrics" dynamodbav:"lyrics"`
	LyricsCleaned   string   `json:"lyrics_cleaned" dynamodbav:"lyrics_cleaned"`
	AlbumArt        string   `json:"album_art,omitempty" dynamodbav:"album_art,omitempty"`
	Summary         string   `json:"summary,omitempty" dynamodbav:"summary,omitempty"`
	Keywords        []string `json:"keywords,omitempty" dynamodbav:"keywords,omitempty"`
	WordCloudURL    string   `json:"wordcloud_url,omitempty" dynamodbav:"wordcloud_url,omitempty"`
}

func NewTrackRecord(track *CatalogTrack, query MatchQuery) *TrackRecord {
	return &TrackRecord{
		OriginalTitle:   track.Title,
		NormalizedTitle: query.CleanTitle,
		Artist:          track.Artist,
		ExpandedArtist:  query.ExpandedArtist,
		AlbumArt:        track.ArtworkURL,
	}
}

// Resolve stores the cleaned lyrics. The provider's raw page text is never
// persisted; it only feeds the cleaner.
func (r *TrackRecord) Resolve(cleaned string) {
	r.Lyrics = &cleaned
	r.LyricsCleaned = cleaned
}

func (r *TrackRecord) IsResolved() bool {
	return r.Lyrics != nil
}

func (r *TrackRecord) IsAnalyzed() bool {
	return r.Summary != "" && len(r.Keywords) > 0
}

// Key is the canonical per-track lookup key inside a document.
func (r *TrackRecord) Key() string {
	return r.NormalizedTitle
}
