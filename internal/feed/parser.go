package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"iter"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/handiism/podcast-downloader/internal/feed/dto"
	"github.com/handiism/podcast-downloader/internal/model"
)

// Feed is a parsed podcast feed.
//
// Feed is immutable after Parse returns. The raw bytes are retained so the
// proximity scanner can produce its sequence lazily.
//
// Example usage:
//
//	data, _ := os.ReadFile("feed.xml")
//	f := feed.Parse(data)
//
//	fmt.Printf("Show: %s\n", f.Title)
//	for ep := range f.Episodes() {
//	    fmt.Printf("  %s -> %s\n", ep.EnclosureURL, ep.Filename())
//	}
type Feed struct {
	// Title is the channel title. Empty if none was found.
	Title string

	// ImageURL is the channel artwork URL. Empty if none was found.
	ImageURL string

	raw        string
	items      []dto.XMLItem
	structured bool
}

// Parse parses raw feed bytes. It never fails: a document that yields
// nothing usable produces a Feed with an empty episode sequence.
func Parse(data []byte) *Feed {
	raw := string(data)

	channel, err := decodeChannel(data)
	if err == nil && (countEnclosures(channel.Items) > 0 || !enclosureRef.MatchString(raw)) {
		return &Feed{
			Title:      channel.Title(),
			ImageURL:   channel.ImageURL(),
			raw:        raw,
			items:      channel.Items,
			structured: true,
		}
	}

	return &Feed{
		Title:    firstElement(raw, titleElem),
		ImageURL: scanImageURL(raw),
		raw:      raw,
	}
}

// Episodes is shorthand for Parse(data).Episodes().
func Episodes(data []byte) iter.Seq[model.Episode] {
	return Parse(data).Episodes()
}

// Structured reports whether the episodes come from the structured pass
// rather than the proximity scanner.
func (f *Feed) Structured() bool {
	return f.structured
}

// Episodes returns the episodes of the feed in document order.
//
// The sequence is finite and restartable: ranging over it again starts
// from the first episode.
func (f *Feed) Episodes() iter.Seq[model.Episode] {
	if f.structured {
		return f.structuredEpisodes
	}
	return newScanner(f.raw).episodes
}

func (f *Feed) structuredEpisodes(yield func(model.Episode) bool) {
	for i := range f.items {
		for _, ep := range f.items[i].ToEpisodes() {
			if !yield(ep) {
				return
			}
		}
	}
}

// voidElements are HTML tags that show up unescaped in item descriptions
// and never have a closing tag. xml.HTMLAutoClose is not usable here: it
// lists link, base, meta and source, which are ordinary RSS elements.
var voidElements = []string{"br", "hr", "img", "wbr"}

// decodeChannel runs the structured pass. The decoder is lenient about
// HTML entities and unclosed tags, and understands non-UTF-8 encodings.
func decodeChannel(data []byte) (*dto.XMLChannel, error) {
	var doc dto.XMLFeed

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = voidElements
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader

	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &doc.Channel, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

func countEnclosures(items []dto.XMLItem) int {
	n := 0
	for i := range items {
		for _, enc := range items[i].Enclosures {
			if strings.TrimSpace(enc.URL) != "" {
				n++
			}
		}
	}
	return n
}

var cdata = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)

// decodeText normalizes text found by the scanner the way the XML decoder
// would, so both parsing modes name files identically. Entities inside
// CDATA sections stay literal.
func decodeText(s string) string {
	if strings.Contains(s, "<![CDATA[") {
		s = cdata.ReplaceAllString(s, "$1")
	} else {
		s = html.UnescapeString(s)
	}
	return strings.TrimSpace(s)
}
