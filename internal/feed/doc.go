// Package feed extracts episodes from podcast RSS feeds.
//
// Feeds in the wild are often not well-formed XML. Parsing therefore runs
// in two stages:
//
//  1. A structured pass decodes <channel>/<item> elements and yields one
//     episode per <enclosure url="..."> inside an item.
//  2. If the document does not decode, or decodes without any enclosures
//     while the text clearly contains some, a proximity scanner takes over.
//     It finds every enclosure URL in document order and associates the
//     first <title> and <pubDate> within 10 lines of the URL.
//
// Missing fields never fail parsing: they become empty strings, which the
// filename deriver maps to an empty title and "unknown-date".
//
// # Usage
//
//	f := feed.Parse(data)
//	for ep := range f.Episodes() {
//	    fmt.Println(ep.Filename())
//	}
//
// Episodes returns a fresh sequence on every call, so the feed can be
// iterated as many times as needed.
package feed
