package domain

import (
	"strings"
	"time"
)

const unresolvedTimeLayout = "2006-01-02 15:04:05"

// UnresolvedEntry is one line of the failed-match log.
type UnresolvedEntry struct {
	Artist    string
	Title     string
	Timestamp time.Time
}

func NewUnresolvedEntry(artist, title string) UnresolvedEntry {
	return UnresolvedEntry{
		Artist:    artist,
		Title:     title,
		Timestamp: time.Now(),
	}
}

// Line renders timestamp|artist|title. Separators and newlines inside fields
// are replaced so every entry stays on one line.
func (e UnresolvedEntry) Line() string {
	return e.Timestamp.Format(unresolvedTimeLayout) + "|" + sanitizeField(e.Artist) + "|" + sanitizeField(e.Title)
}

func sanitizeField(s string) string {
	return strings.NewReplacer("|", "/", "\n", " ", "\r", " ").Replace(s)
}
