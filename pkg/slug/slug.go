package slug

import (
	"regexp"
	"strings"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given title.
//
// Examples:
//   - "The Great Gatsby" → "the-great-gatsby"
//   - "Pride & Prejudice" → "pride-prejudice"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugRegexp.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}
