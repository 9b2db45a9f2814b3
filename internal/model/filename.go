package model

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// UnknownDate replaces the date component when a publish date is missing
// or cannot be parsed.
const UnknownDate = "unknown-date"

// DefaultExtension is used when the enclosure URL carries no usable suffix.
const DefaultExtension = "mp3"

var (
	unsafeRuns  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	underscores = regexp.MustCompile(`_+`)
	extSuffix   = regexp.MustCompile(`\.(\w+)$`)
)

// Feeds mostly use RFC 822 dates, with a lot of variation in the wild.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

// ParseDate converts a raw publish date into YYYY-MM-DD.
//
// The date is formatted in its own offset, so "Mon, 01 Jan 2024 00:00:00 GMT"
// is always 2024-01-01 regardless of the local timezone. Any failure,
// including empty input, yields UnknownDate.
//
// Example:
//
//	ParseDate("Mon, 01 Jan 2024 00:00:00 GMT") // "2024-01-01"
//	ParseDate("")                              // "unknown-date"
func ParseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return UnknownDate
	}
	return t.Format("2006-01-02")
}

// SanitizeTitle reduces a title to a filename-safe component.
//
// The following transformations are applied:
//   - Every run of characters outside [A-Za-z0-9._-] → single underscore
//   - Consecutive underscores → single underscore
//   - Trailing underscore → removed
//
// Example:
//
//	SanitizeTitle("Hello World!")    // "Hello_World"
//	SanitizeTitle("a__b  c")         // "a_b_c"
//	SanitizeTitle("Ünïcode & more")  // "_n_code_more"
func SanitizeTitle(title string) string {
	s := unsafeRuns.ReplaceAllString(title, "_")
	s = underscores.ReplaceAllString(s, "_")
	return strings.TrimSuffix(s, "_")
}

// Extension returns the file extension of an enclosure URL without the dot.
//
// The suffix is taken from the URL path so query strings and fragments
// do not hide it. When the URL cannot be parsed the raw string is used.
// DefaultExtension is returned when nothing matches.
func Extension(rawURL string) string {
	candidate := rawURL
	if u, err := url.Parse(rawURL); err == nil && (u.Scheme != "" || u.Host != "") {
		candidate = path.Base(u.Path)
		if candidate == "/" || candidate == "." {
			candidate = ""
		}
	}

	if m := extSuffix.FindStringSubmatch(candidate); m != nil {
		return m[1]
	}
	return DefaultExtension
}
