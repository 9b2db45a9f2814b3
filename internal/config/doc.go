// Package config provides configuration management for podcast-downloader.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Validation and conversion to the fetcher's RetryConfig
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Podcasts
//	// 30s timeout, 3 attempts, 2s between attempts
//	// ID3 tagging when an album is set
//
// # Loading from File
//
//	settings, err := config.Load(path)
//	// A missing file yields defaults; keys absent from the file keep them.
//
// Command line flags are applied on top of the loaded settings before
// Validate is called. Settings are not modified once a run starts.
//
// # Example File
//
//	feed_url = "https://example.com/feed.xml"
//	download_dir = "~/Podcasts/Example"
//	album = "Example Show"
//	max_attempts = 5
//	playlist_format = "m3u"
package config
