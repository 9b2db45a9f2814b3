package ioutils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IsRegularFile reports whether path exists and is a regular file.
// Directories, sockets and dangling symlinks do not count.
//
// Example:
//
//	if IsRegularFile("/podcasts/2024-01-01_Pilot.mp3") {
//	    // already downloaded
//	}
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// RemovePartial removes a partially written file. A missing file is not
// an error.
func RemovePartial(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644. If the file already exists,
// it is truncated before writing.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFile("/podcasts/show.m3u", playlistContent)
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Paths without a leading "~" are returned unchanged.
//
//	ExpandHome("~/Podcasts") // "/home/user/Podcasts"
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// WithTempDir creates a temporary directory, runs fn with its path, and
// removes the directory on every return path, including panics.
//
// Example:
//
//	err := WithTempDir("podcast-downloader-", func(dir string) error {
//	    return client.Fetch(ctx, feedURL, filepath.Join(dir, "rss_feed.xml"))
//	})
func WithTempDir(pattern string, fn func(dir string) error) (err error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("remove temp dir: %w", rmErr)
		}
	}()
	return fn(dir)
}
