package domain

import (
	"regexp"
	"strings"
)

const translationsMarker = "Translations"

var (
	headerRegex        = regexp.MustCompile(`(?is)^\s*\d+\s*Contributors?.*?Lyrics`)
	sectionTagRegex    = regexp.MustCompile(`\[.*?\]`)
	preambleHintRegex  = regexp.MustCompile(`(?i)contributors?|lyrics`)
	promoLineRegex     = regexp.MustCompile(`(?im)^.*(?:Read More|You might also like).*$\n?`)
	embedSuffixRegex   = regexp.MustCompile(`(?:\d*Embed\s*)+$`)
	inlineSpaceRegex   = regexp.MustCompile(`[ \t]+`)
	lineEdgeSpaceRegex = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankLinesRegex    = regexp.MustCompile(`\n{2,}`)
	contributorsRegex  = regexp.MustCompile(`(?i)^\d+\s*Contributors?[^\n]*\n?`)
)

// CleanLyrics strips provider boilerplate from raw lyric text. It never fails
// and CleanLyrics(CleanLyrics(x)) == CleanLyrics(x).
func CleanLyrics(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := headerRegex.ReplaceAllString(raw, "")
	text = dropPreamble(text)

	text = sectionTagRegex.ReplaceAllString(text, "")
	text = promoLineRegex.ReplaceAllString(text, "")

	if idx := strings.Index(text, translationsMarker); idx >= 0 {
		text = text[:idx]
	}

	text = embedSuffixRegex.ReplaceAllString(text, "")
	text = collapseWhitespace(text)

	for contributorsRegex.MatchString(text) {
		text = strings.TrimSpace(contributorsRegex.ReplaceAllString(text, ""))
	}

	return text
}

// dropPreamble removes metadata that precedes the first section tag. Text
// with no tag is left alone, title header included.
func dropPreamble(text string) string {
	loc := sectionTagRegex.FindStringIndex(text)
	if loc == nil || loc[0] == 0 {
		return text
	}
	if !preambleHintRegex.MatchString(text[:loc[0]]) {
		return text
	}
	return text[loc[0]:]
}

func collapseWhitespace(text string) string {
	text = inlineSpaceRegex.ReplaceAllString(text, " ")
	text = lineEdgeSpaceRegex.ReplaceAllString(text, "\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
