// Package model defines the core data structures used throughout
// the podcast-downloader application.
//
// # Episode
//
// Episode is the descriptor extracted from a feed for every enclosure
// reference. It carries the raw text found in the feed, nothing more:
//
//	ep := model.Episode{
//	    EnclosureURL: "http://example.com/ep1.mp3",
//	    Title:        "Hello World!",
//	    PubDate:      "Mon, 01 Jan 2024 00:00:00 GMT",
//	}
//	fmt.Println(ep.Filename()) // 2024-01-01_Hello_World.mp3
//
// # Filenames
//
// Filename is both the storage key and the deduplication key. Two episodes
// that derive the same filename are treated as the same episode.
//
//	model.SanitizeTitle("Part 1/2: Intro") // Part_1_2_Intro
//	model.ParseDate("garbage")             // unknown-date
//	model.Extension("http://x/a.m4a?t=1")  // m4a
//
// # Playlist Formats
//
// PlaylistFormat enumerates the playlist files that can be written next
// to the downloaded episodes.
package model
