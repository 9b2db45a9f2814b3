package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/handiism/podcast-downloader/internal/model"
)

// SourceURLDescription is the TXXX frame description under which the
// enclosure URL of a downloaded episode is recorded.
const SourceURLDescription = "PODCAST_SOURCE_URL"

// ErrUnsupportedFormat is returned by ID3Tagger for files that are not MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format for ID3 tagging")

// Metadata is what a Tagger may write into a downloaded episode.
// Empty fields are left untouched.
type Metadata struct {
	Album     string
	Title     string
	Date      string // YYYY-MM-DD or model.UnknownDate
	SourceURL string
	Artwork   []byte // JPEG
}

// Tagger writes metadata into an audio file.
type Tagger interface {
	Tag(ctx context.Context, path string, meta Metadata) error
}

// TagEditAction defines how to handle individual ID3 tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the feed.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    Album:     TagModify,      // album name from settings
//	    Title:     TagDoNotModify, // keep the publisher's title
//	    Date:      TagDoNotModify,
//	    SourceURL: TagModify,      // needed for strict dedup
//	    Artwork:   TagModify,
//	}
type TagConfig struct {
	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// Title controls the TIT2 (Title) frame.
	Title TagEditAction

	// Date controls the TDRC (Recording time) frame.
	Date TagEditAction

	// SourceURL controls the TXXX:PODCAST_SOURCE_URL frame.
	SourceURL TagEditAction

	// Artwork controls the APIC (Attached picture) front cover frame.
	Artwork TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// Only the album, source URL and artwork are written by default. Title
// and date are left as the publisher tagged them.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		Album:     TagModify,
		Title:     TagDoNotModify,
		Date:      TagDoNotModify,
		SourceURL: TagModify,
		Artwork:   TagModify,
	}
}

// ID3Tagger writes ID3 tags to MP3 files using the id3v2 library.
//
// Example:
//
//	tagger := NewID3Tagger(DefaultTagConfig())
//	err := tagger.Tag(ctx, "/podcasts/2024-01-01_Pilot.mp3", Metadata{Album: "My Show"})
//	if err != nil {
//	    logger.Warn("failed to tag", "error", err)
//	}
type ID3Tagger struct {
	config *TagConfig
}

// NewID3Tagger creates a new ID3Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewID3Tagger(config *TagConfig) *ID3Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &ID3Tagger{config: config}
}

// Tag writes meta into the file at path.
//
// This method:
//  1. Opens the existing MP3 file (or creates empty tags if none exist)
//  2. Updates text frames based on TagConfig settings
//  3. Embeds cover art if artwork bytes are provided
//  4. Saves the modified tags to the file
//
// Returns ErrUnsupportedFormat for non-MP3 files.
func (t *ID3Tagger) Tag(ctx context.Context, path string, meta Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !isMP3(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tags: %w", err)
	}
	defer tag.Close()

	t.updateTextFrames(tag, meta)
	t.updateArtwork(tag, meta.Artwork)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	return nil
}

// updateTextFrames updates text-based ID3 frames based on configuration.
func (t *ID3Tagger) updateTextFrames(tag *id3v2.Tag, meta Metadata) {
	// Album (TALB)
	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		if meta.Album != "" {
			tag.SetAlbum(meta.Album)
		}
	}

	// Title (TIT2)
	switch t.config.Title {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		if meta.Title != "" {
			tag.SetTitle(meta.Title)
		}
	}

	// Date (TDRC)
	switch t.config.Date {
	case TagEmpty:
		tag.DeleteFrames("TDRC")
	case TagModify:
		if meta.Date != "" && meta.Date != model.UnknownDate {
			tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, meta.Date)
		}
	}

	// Source URL (TXXX)
	switch t.config.SourceURL {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("User defined text information frame"))
	case TagModify:
		if meta.SourceURL != "" {
			tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    id3v2.EncodingUTF8,
				Description: SourceURLDescription,
				Value:       meta.SourceURL,
			})
		}
	}
}

// updateArtwork embeds cover art as an attached picture frame.
func (t *ID3Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	switch t.config.Artwork {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Attached picture"))
	case TagModify:
		if artwork == nil {
			return
		}
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     artwork,
		})
	}
}

// SourceURL returns the enclosure URL recorded in the file's tags by a
// previous download, if any.
func SourceURL(path string) (string, bool) {
	if !isMP3(path) {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}

	tag, err := id3v2.Open(path, id3v2.Options{
		Parse:       true,
		ParseFrames: []string{"User defined text information frame"},
	})
	if err != nil {
		return "", false
	}
	defer tag.Close()

	for _, f := range tag.GetFrames(tag.CommonID("User defined text information frame")) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if ok && udtf.Description == SourceURLDescription && udtf.Value != "" {
			return udtf.Value, true
		}
	}
	return "", false
}

func isMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}
