package dto

import (
	"encoding/xml"
	"strings"
)

// XMLFeed is the root <rss> element of a podcast feed.
type XMLFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel XMLChannel `xml:"channel"`
}

// XMLChannel represents the <channel> element.
//
// Elements are matched by local name, so <image> and <itunes:image> both
// land in Images and <title> and <itunes:title> both land in Titles.
type XMLChannel struct {
	Titles []XMLText  `xml:"title"`
	Images []XMLImage `xml:"image"`
	Items  []XMLItem  `xml:"item"`
}

// XMLText is a text element that remembers its namespace.
type XMLText struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// XMLImage covers both the RSS <image><url> form and the iTunes
// <itunes:image href="..."/> form.
type XMLImage struct {
	Href string `xml:"href,attr"`
	URL  string `xml:"url"`
}

// Title returns the channel title, preferring the un-namespaced element.
func (c *XMLChannel) Title() string {
	return firstText(c.Titles)
}

// ImageURL returns the channel artwork URL, preferring the iTunes form
// which podcast apps use for square cover art.
func (c *XMLChannel) ImageURL() string {
	for _, img := range c.Images {
		if href := strings.TrimSpace(img.Href); href != "" {
			return FixURL(href)
		}
	}
	for _, img := range c.Images {
		if u := strings.TrimSpace(img.URL); u != "" {
			return FixURL(u)
		}
	}
	return ""
}

func firstText(elems []XMLText) string {
	for _, e := range elems {
		if e.XMLName.Space == "" {
			return strings.TrimSpace(e.Value)
		}
	}
	if len(elems) > 0 {
		return strings.TrimSpace(elems[0].Value)
	}
	return ""
}

// FixURL turns protocol-relative URLs ("//cdn...") into absolute ones.
func FixURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "http:" + u
	}
	return u
}
