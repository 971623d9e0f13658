// Package slug derives URL-friendly identifiers from post titles and
// certificate key components.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace      = regexp.MustCompile(`\s+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate lower-cases s, drops punctuation and joins words with hyphens.
// "Intro to HTML: Tags & Attributes" -> "intro-to-html-tags-attributes"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Fallback returns Generate(s), or def when nothing survives.
func Fallback(s, def string) string {
	if g := Generate(s); g != "" {
		return g
	}
	return def
}
