package model

import (
	"fmt"
	"strings"
)

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatNone disables playlist generation.
	PlaylistFormatNone PlaylistFormat = iota

	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL

	// PlaylistFormatZPL creates .zpl playlist files (Zune Media Player).
	PlaylistFormatZPL
)

// ParsePlaylistFormat maps a settings value ("m3u", "pls", "wpl", "zpl",
// or empty for none) to a PlaylistFormat.
func ParsePlaylistFormat(s string) (PlaylistFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PlaylistFormatNone, nil
	case "m3u":
		return PlaylistFormatM3U, nil
	case "pls":
		return PlaylistFormatPLS, nil
	case "wpl":
		return PlaylistFormatWPL, nil
	case "zpl":
		return PlaylistFormatZPL, nil
	default:
		return PlaylistFormatNone, fmt.Errorf("unsupported playlist format %q", s)
	}
}

// Extension returns the file extension for the playlist format, including the dot.
//
// Returns:
//   - ".m3u" for PlaylistFormatM3U (and PlaylistFormatNone)
//   - ".pls" for PlaylistFormatPLS
//   - ".wpl" for PlaylistFormatWPL
//   - ".zpl" for PlaylistFormatZPL
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	case PlaylistFormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// PlaylistEntry is an episode whose file is present in the download directory.
type PlaylistEntry struct {
	Episode  Episode
	FileName string
}
