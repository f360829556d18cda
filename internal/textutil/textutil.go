// Package textutil provides text helpers shared by the generation pipeline:
// word counting, slug derivation, and heading normalization for
// case-insensitive section matching.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var slugSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Slugify derives a URL slug from a title: lowercase, alphanumeric runs
// joined by hyphens.
func Slugify(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	parts := slugSplitPattern.Split(lowered, -1)
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "-")
}

// NormalizeHeading prepares a heading for case-insensitive containment
// matching: lowercased, punctuation collapsed to single spaces.
func NormalizeHeading(heading string) string {
	var b strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(heading) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// HeadingContains reports whether haystack contains needle after both are
// normalized for case and punctuation.
func HeadingContains(haystack, needle string) bool {
	h := NormalizeHeading(haystack)
	n := NormalizeHeading(needle)
	if n == "" {
		return false
	}
	return strings.Contains(h, n)
}

// TitleCase renders a string in title case for display labels.
func TitleCase(value string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(value))
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// truncation occurred.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
