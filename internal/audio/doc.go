// Package audio provides audio file services: album tagging of downloaded
// episodes and playlist generation.
//
// # Tagging
//
// The pipeline depends on the Tagger interface. Two implementations exist:
//
//	tagger := audio.NewID3Tagger(audio.DefaultTagConfig())  // in-process, MP3 only
//	tagger := audio.NewCommandTagger("id3v2")               // external tool, id3v2 -A <album> <file>
//
// ResolveTagger picks one at startup from a settings value and checks that
// an external tool is actually installed:
//
//	tagger, err := audio.ResolveTagger("command", "id3v2")
//	if errors.Is(err, audio.ErrTaggerUnavailable) {
//	    // run without tagging
//	}
//
// Tagging is best-effort: callers log failures and keep the file.
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("Show Title", entries)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
