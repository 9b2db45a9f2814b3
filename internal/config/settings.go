package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/handiism/podcast-downloader/internal/audio"
	"github.com/handiism/podcast-downloader/internal/http"
	ioutils "github.com/handiism/podcast-downloader/internal/io"
	"github.com/handiism/podcast-downloader/internal/logging"
	"github.com/handiism/podcast-downloader/internal/model"
)

// ErrMissingFeedURL is returned by Validate when no feed URL is set.
var ErrMissingFeedURL = errors.New("RSS feed URL is required")

// Settings holds all configuration options.
type Settings struct {
	// Feed
	FeedURL       string `toml:"feed_url"`
	DownloadDir   string `toml:"download_dir"`
	Album         string `toml:"album"`
	AlbumFromFeed bool   `toml:"album_from_feed"`
	Verbose       bool   `toml:"verbose"`

	// Retry settings
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	UserAgent         string `toml:"user_agent"`

	// Duplicate handling
	StrictDedup bool `toml:"strict_dedup"`

	// Tag settings
	Tagger         string `toml:"tagger"` // auto, id3, command, none
	TagCommand     string `toml:"tag_command"`
	EmbedArtwork   bool   `toml:"embed_artwork"`
	ArtworkMaxSize int    `toml:"artwork_max_size"` // 0 keeps the original size

	// Playlist settings
	PlaylistFormat string `toml:"playlist_format"` // m3u, pls, wpl, zpl or empty
	M3UExtended    bool   `toml:"m3u_extended"`

	// Logging
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		DownloadDir:       "~/Podcasts",
		TimeoutSeconds:    int(http.DefaultTimeout / time.Second),
		MaxAttempts:       http.DefaultMaxAttempts,
		RetryDelaySeconds: int(http.DefaultRetryDelay / time.Second),
		UserAgent:         http.DefaultUserAgent,
		Tagger:            audio.TaggerAuto,
		TagCommand:        audio.DefaultTagCommand,
		ArtworkMaxSize:    600,
		M3UExtended:       true,
		LogLevel:          "info",
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/podcast-downloader/config.toml,
// falling back to the platform user config directory.
func DefaultConfigPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		dir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve config dir: %w", err)
		}
	}
	return filepath.Join(dir, "podcast-downloader", "config.toml"), nil
}

// Load reads settings from a TOML file. A missing file yields defaults.
// Values absent from the file keep their defaults.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a TOML file, creating parent directories.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate ensures the settings are usable for a run.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.FeedURL) == "" {
		return ErrMissingFeedURL
	}
	if strings.TrimSpace(s.DownloadDir) == "" {
		return errors.New("download_dir must be set")
	}
	if err := s.RetryConfig().Validate(); err != nil {
		return err
	}
	if s.ArtworkMaxSize < 0 {
		return fmt.Errorf("artwork_max_size must not be negative, got %d", s.ArtworkMaxSize)
	}
	if _, err := s.Playlist(); err != nil {
		return err
	}
	switch strings.ToLower(s.Tagger) {
	case "", audio.TaggerAuto, audio.TaggerID3, audio.TaggerCommand, audio.TaggerNone:
	default:
		return fmt.Errorf("tagger must be one of auto, id3, command, none, got %q", s.Tagger)
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// Dir returns DownloadDir with a leading "~" expanded.
func (s *Settings) Dir() string {
	return ioutils.ExpandHome(s.DownloadDir)
}

// RetryConfig converts settings to the fetcher's retry bounds.
func (s *Settings) RetryConfig() http.RetryConfig {
	return http.RetryConfig{
		Timeout:     time.Duration(s.TimeoutSeconds) * time.Second,
		MaxAttempts: s.MaxAttempts,
		Delay:       time.Duration(s.RetryDelaySeconds) * time.Second,
	}
}

// Playlist parses PlaylistFormat.
func (s *Settings) Playlist() (model.PlaylistFormat, error) {
	return model.ParsePlaylistFormat(s.PlaylistFormat)
}
