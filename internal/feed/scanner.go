package feed

import (
	"html"
	"regexp"
	"sort"
	"strings"

	"github.com/handiism/podcast-downloader/internal/feed/dto"
	"github.com/handiism/podcast-downloader/internal/model"
)

// contextLines is how many lines before and after an enclosure URL are
// searched for its title and publish date.
const contextLines = 10

var (
	enclosureRef = regexp.MustCompile(`<enclosure\b[^>]*?\surl\s*=\s*["']([^"']*)["']`)
	titleElem    = regexp.MustCompile(`(?s)<title(?:\s[^>]*)?>(.*?)</title>`)
	pubDateElem  = regexp.MustCompile(`(?s)<pubDate(?:\s[^>]*)?>(.*?)</pubDate>`)
	itunesImage  = regexp.MustCompile(`<itunes:image\b[^>]*?\shref\s*=\s*["']([^"']*)["']`)
	rssImageURL  = regexp.MustCompile(`(?s)<image>.*?<url>(.*?)</url>`)
)

// scanner associates episode fields by proximity instead of structure.
type scanner struct {
	text       string
	lineStarts []int
}

func newScanner(text string) *scanner {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &scanner{text: text, lineStarts: starts}
}

// episodes yields one episode per enclosure reference, in document order.
// Duplicate URLs are not collapsed.
func (s *scanner) episodes(yield func(model.Episode) bool) {
	offset := 0
	for offset < len(s.text) {
		loc := enclosureRef.FindStringSubmatchIndex(s.text[offset:])
		if loc == nil {
			return
		}
		rawURL := strings.TrimSpace(s.text[offset+loc[2] : offset+loc[3]])
		offset += loc[1]
		if rawURL == "" {
			continue
		}

		window := s.context(rawURL)
		ep := model.Episode{
			EnclosureURL: dto.FixURL(html.UnescapeString(rawURL)),
			Title:        firstElement(window, titleElem),
			PubDate:      firstElement(window, pubDateElem),
		}
		if !yield(ep) {
			return
		}
	}
}

// context returns the lines surrounding the first occurrence of needle.
func (s *scanner) context(needle string) string {
	idx := strings.Index(s.text, needle)
	if idx < 0 {
		return ""
	}

	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > idx
	}) - 1

	first := max(0, line-contextLines)
	last := min(len(s.lineStarts)-1, line+contextLines)

	end := len(s.text)
	if last+1 < len(s.lineStarts) {
		end = s.lineStarts[last+1]
	}
	return s.text[s.lineStarts[first]:end]
}

// firstElement returns the decoded content of the first match of re in
// text, or an empty string.
func firstElement(text string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return decodeText(m[1])
}

func scanImageURL(text string) string {
	if m := itunesImage.FindStringSubmatch(text); m != nil {
		if u := strings.TrimSpace(m[1]); u != "" {
			return dto.FixURL(html.UnescapeString(u))
		}
	}
	if m := rssImageURL.FindStringSubmatch(text); m != nil {
		if u := decodeText(m[1]); u != "" {
			return dto.FixURL(u)
		}
	}
	return ""
}
