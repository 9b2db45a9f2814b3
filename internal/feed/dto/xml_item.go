package dto

import (
	"strings"

	"github.com/handiism/podcast-downloader/internal/model"
)

// XMLItem represents an <item> element.
type XMLItem struct {
	Titles     []XMLText      `xml:"title"`
	PubDates   []XMLText      `xml:"pubDate"`
	Enclosures []XMLEnclosure `xml:"enclosure"`
}

// XMLEnclosure represents the <enclosure url="..." type="..." length="..."/> element.
type XMLEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length string `xml:"length,attr"`
}

// ToEpisodes converts the item into one episode per enclosure that has a URL.
func (it *XMLItem) ToEpisodes() []model.Episode {
	title := firstText(it.Titles)
	pubDate := firstText(it.PubDates)

	var episodes []model.Episode
	for _, enc := range it.Enclosures {
		u := strings.TrimSpace(enc.URL)
		if u == "" {
			continue
		}
		episodes = append(episodes, model.Episode{
			EnclosureURL: FixURL(u),
			Title:        title,
			PubDate:      pubDate,
		})
	}
	return episodes
}
