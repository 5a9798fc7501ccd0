package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from a display name.
//
// Examples:
//   - "Home & Kitchen" → "home-kitchen"
//   - "  Mobiles  " → "mobiles"
//   - "Men's T-Shirts" → "men-s-t-shirts"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Humanize turns a slug back into words by replacing hyphens with spaces.
// Casing is left alone.
func Humanize(s string) string {
	return strings.ReplaceAll(s, "-", " ")
}
