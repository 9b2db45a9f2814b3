package model

import (
	"strings"

	"github.com/google/uuid"
)

// Episode describes a single enclosure found in a podcast feed.
//
// Episode values are created by the feed parser, never modified, and
// discarded once the episode has been processed. All fields hold the raw
// text extracted from the feed.
//
// Example:
//
//	ep := Episode{EnclosureURL: mp3URL, Title: "Pilot", PubDate: "Tue, 02 Jan 2024 10:00:00 +0000"}
//	path := filepath.Join(downloadDir, ep.Filename())
type Episode struct {
	// EnclosureURL is the URL the audio is fetched from. Never empty.
	EnclosureURL string

	// Title is the episode title. May be empty when the feed has none
	// near the enclosure. Only used for naming.
	Title string

	// PubDate is the raw publish date text. May be empty.
	PubDate string
}

// Date returns the YYYY-MM-DD component of the episode's filename,
// or UnknownDate when the publish date cannot be parsed.
func (e Episode) Date() string {
	return ParseDate(e.PubDate)
}

// Filename derives the deterministic, filesystem-safe file name for the
// episode:
//
//	<date>_<sanitized title>.<extension>
//
// The result only depends on the episode fields, so the same episode
// always maps to the same file across runs.
func (e Episode) Filename() string {
	return e.Date() + "_" + SanitizeTitle(e.Title) + "." + Extension(e.EnclosureURL)
}

// DisambiguatedFilename is Filename with a short suffix derived from the
// enclosure URL. It is used when two different enclosures collide on the
// same Filename and the caller wants to keep both.
//
//	2024-01-01_Hello_World-6ba7b811.mp3
func (e Episode) DisambiguatedFilename() string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(e.EnclosureURL)).String()
	suffix := strings.SplitN(id, "-", 2)[0]
	return e.Date() + "_" + SanitizeTitle(e.Title) + "-" + suffix + "." + Extension(e.EnclosureURL)
}
