package domain

import (
	"regexp"
	"strings"
)

var (
	parenthesizedRegex = regexp.MustCompile(`\s*\(.*?\)`)
	fromSuffixRegex    = regexp.MustCompile(`\s*- From .*?$`)
	fromBracketRegex   = regexp.MustCompile(`\s*\[From .*?\]`)
	featuredRegex      = regexp.MustCompile(`(?i)\((?:with|feat\.?)\s([^)]+)\)`)
)

// Normalize returns a search-friendly title and the artist expanded with any
// featured performers named in the original title.
func Normalize(title, artist string) (string, string) {
	return CleanTitle(title), ExpandArtist(title, artist)
}

func CleanTitle(title string) string {
	clean := parenthesizedRegex.ReplaceAllString(title, "")
	clean = fromSuffixRegex.ReplaceAllString(clean, "")
	clean = fromBracketRegex.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

func ExpandArtist(title, artist string) string {
	matches := featuredRegex.FindAllStringSubmatch(title, -1)
	if len(matches) == 0 {
		return artist
	}

	parts := []string{artist}
	for _, m := range matches {
		if name := strings.TrimSpace(m[1]); name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " ")
}
