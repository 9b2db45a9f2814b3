// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Directory creation and home directory expansion
//   - Existence checks used for episode deduplication
//   - Removal of partially written downloads
//   - Scoped temporary directories
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Ensure the download directory exists
//	err := ioutils.EnsureDir(ioutils.ExpandHome("~/Podcasts"))
//
//	// Dedup check
//	if ioutils.IsRegularFile(path) { ... }
//
//	// Run work inside a temporary directory that is always removed
//	err := ioutils.WithTempDir("podcast-downloader-", func(dir string) error { ... })
//
// # Image Processing
//
// PrepareArtwork shrinks cover art to fit a square and re-encodes it as JPEG:
//
//	jpeg, err := ioutils.PrepareArtwork(ctx, imageData, 600)
package ioutils
