package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handiism/podcast-downloader/internal/http"
	"github.com/handiism/podcast-downloader/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.DownloadDir != "~/Podcasts" {
		t.Errorf("DownloadDir = %q", s.DownloadDir)
	}
	rc := s.RetryConfig()
	if rc.Timeout != 30*time.Second || rc.MaxAttempts != 3 || rc.Delay != 2*time.Second {
		t.Errorf("RetryConfig() = %+v", rc)
	}
	if s.Tagger != "auto" {
		t.Errorf("Tagger = %q", s.Tagger)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *s != *DefaultSettings() {
		t.Errorf("Load() = %+v, want defaults", s)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "feed_url = \"http://example.com/feed.xml\"\nmax_attempts = 5\nplaylist_format = \"pls\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.FeedURL != "http://example.com/feed.xml" || s.MaxAttempts != 5 {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.TimeoutSeconds != 30 || s.DownloadDir != "~/Podcasts" {
		t.Errorf("defaults lost: %+v", s)
	}
	if pf, _ := s.Playlist(); pf != model.PlaylistFormatPLS {
		t.Errorf("Playlist() = %v", pf)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("feed_url = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	s := DefaultSettings()
	s.FeedURL = "http://example.com/feed.xml"
	s.Album = "My Show"
	s.StrictDedup = true

	if err := s.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *s {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, s)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Settings {
		s := DefaultSettings()
		s.FeedURL = "http://example.com/feed.xml"
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr error
		ok      bool
	}{
		{name: "valid", mutate: func(*Settings) {}, ok: true},
		{name: "missing feed", mutate: func(s *Settings) { s.FeedURL = " " }, wantErr: ErrMissingFeedURL},
		{name: "zero timeout", mutate: func(s *Settings) { s.TimeoutSeconds = 0 }, wantErr: http.ErrInvalidRequest},
		{name: "zero attempts", mutate: func(s *Settings) { s.MaxAttempts = 0 }, wantErr: http.ErrInvalidRequest},
		{name: "bad playlist", mutate: func(s *Settings) { s.PlaylistFormat = "xspf" }},
		{name: "bad tagger", mutate: func(s *Settings) { s.Tagger = "magic" }},
		{name: "bad artwork size", mutate: func(s *Settings) { s.ArtworkMaxSize = -1 }},
		{name: "bad log level", mutate: func(s *Settings) { s.LogLevel = "loud" }},
		{name: "empty dir", mutate: func(s *Settings) { s.DownloadDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDir_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	s := &Settings{DownloadDir: "~/Podcasts"}
	if got := s.Dir(); got != filepath.Join(home, "Podcasts") {
		t.Errorf("Dir() = %q", got)
	}
	s.DownloadDir = "/tmp/pods"
	if got := s.Dir(); got != "/tmp/pods" {
		t.Errorf("Dir() = %q", got)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/xdg", "podcast-downloader", "config.toml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}
