package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/handiism/podcast-downloader/internal/audio"
	"github.com/handiism/podcast-downloader/internal/config"
	"github.com/handiism/podcast-downloader/internal/feed"
	"github.com/handiism/podcast-downloader/internal/http"
	ioutils "github.com/handiism/podcast-downloader/internal/io"
	"github.com/handiism/podcast-downloader/internal/model"
)

// ErrFeedFetch is returned by Run when the feed itself could not be
// downloaded. It is the only fatal error of a run.
var ErrFeedFetch = errors.New("failed to download RSS feed")

const (
	tempDirPattern  = "podcast-downloader-"
	feedFileName    = "rss_feed.xml"
	artworkFileName = "artwork"
)

// Stats summarizes a run.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Progress is a snapshot of a running Manager.
type Progress struct {
	Total      int
	Processed  int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64

	Current         string
	CurrentReceived int64
	CurrentTotal    int64
}

// Manager coordinates a full run: fetch the feed, then process every
// episode in feed order.
type Manager struct {
	settings *config.Settings
	logger   *slog.Logger
	fetcher  Fetcher
	tagger   audio.Tagger

	taggerSet bool

	total      atomic.Int32
	processed  atomic.Int32
	downloaded atomic.Int32
	skipped    atomic.Int32
	failed     atomic.Int32
	bytes      atomic.Int64
	received   atomic.Int64
	expected   atomic.Int64

	mu      sync.RWMutex
	current string
}

// Option configures a Manager.
type Option func(*Manager)

// WithFetcher replaces the HTTP client built from settings.
func WithFetcher(f Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// WithTagger replaces the tagger resolved from settings. A nil tagger
// disables tagging.
func WithTagger(t audio.Tagger) Option {
	return func(m *Manager) {
		m.tagger = t
		m.taggerSet = true
	}
}

// NewManager creates a Manager. settings must already be validated and
// are not modified.
func NewManager(settings *config.Settings, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		settings: settings,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.fetcher == nil {
		m.fetcher = http.NewClient(
			http.WithRetry(settings.RetryConfig()),
			http.WithUserAgent(settings.UserAgent),
			http.WithLogger(logger),
			http.WithProgress(m.onBytes),
		)
	}
	if !m.taggerSet {
		m.tagger = m.resolveTagger()
	}
	return m
}

func (m *Manager) resolveTagger() audio.Tagger {
	t, err := audio.ResolveTagger(m.settings.Tagger, m.settings.TagCommand)
	if err != nil {
		m.logger.Warn("Tagger is not available. Some features may be limited.", "tagger", m.settings.Tagger, "error", err)
		return nil
	}
	return t
}

// Run downloads every episode of the configured feed. Episode failures are
// counted, not returned. The returned error wraps ErrFeedFetch when the
// feed could not be fetched, or is the context error when the run was
// interrupted.
func (m *Manager) Run(ctx context.Context) (Stats, error) {
	m.logger.Info("Starting podcast download", "feed", m.settings.FeedURL)

	err := ioutils.WithTempDir(tempDirPattern, func(tmp string) error {
		data, err := m.fetchFeed(ctx, tmp)
		if err != nil {
			return err
		}
		return m.process(ctx, tmp, feed.Parse(data))
	})

	stats := m.stats()
	if err != nil {
		return stats, err
	}

	m.logger.Info("Process completed successfully",
		"downloaded", stats.Downloaded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"size", humanize.Bytes(uint64(stats.Bytes)),
	)
	return stats, nil
}

func (m *Manager) fetchFeed(ctx context.Context, tmp string) ([]byte, error) {
	path := filepath.Join(tmp, feedFileName)
	if err := m.fetcher.Fetch(ctx, m.settings.FeedURL, path); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		m.logger.Error("Failed to download RSS feed", "feed", m.settings.FeedURL, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFeedFetch, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedFetch, err)
	}
	return data, nil
}

func (m *Manager) process(ctx context.Context, tmp string, f *feed.Feed) error {
	if !f.Structured() {
		m.logger.Debug("Feed is not well-formed, using fallback scanner")
	}

	total := 0
	for range f.Episodes() {
		total++
	}
	m.total.Store(int32(total))
	m.logger.Debug("Parsed feed", "title", f.Title, "episodes", total)

	album := m.settings.Album
	if album == "" && m.settings.AlbumFromFeed {
		album = f.Title
	}

	pipeline := NewPipeline(PipelineConfig{
		Dir:     m.settings.Dir(),
		Album:   album,
		Verbose: m.settings.Verbose,
		Strict:  m.settings.StrictDedup,
		Artwork: m.artwork(ctx, tmp, f.ImageURL),
	}, m.fetcher, m.tagger, m.logger)

	var entries []model.PlaylistEntry
	for ep := range f.Episodes() {
		if ctx.Err() != nil {
			break
		}
		m.setCurrent(ep.Filename())

		res := pipeline.Process(ctx, ep)
		m.record(res)
		if res.Outcome != OutcomeFailed {
			entries = append(entries, model.PlaylistEntry{Episode: ep, FileName: res.File})
		}
	}
	m.setCurrent("")

	if err := ctx.Err(); err != nil {
		m.logger.Warn("Interrupted, stopping")
		return err
	}

	title := album
	if title == "" {
		title = f.Title
	}
	m.writePlaylist(title, entries)
	return nil
}

// artwork downloads and shrinks the channel image for embedding. Any
// failure only disables embedding.
func (m *Manager) artwork(ctx context.Context, tmp, url string) []byte {
	if !m.settings.EmbedArtwork {
		return nil
	}
	if url == "" {
		m.logger.Warn("Feed has no artwork to embed")
		return nil
	}

	path := filepath.Join(tmp, artworkFileName)
	if err := m.fetcher.Fetch(ctx, url, path); err != nil {
		m.logger.Warn("Failed to download artwork", "url", url, "error", err)
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		m.logger.Warn("Failed to read artwork", "error", err)
		return nil
	}

	jpeg, err := ioutils.PrepareArtwork(ctx, data, m.settings.ArtworkMaxSize)
	if err != nil {
		m.logger.Warn("Failed to prepare artwork", "error", err)
		return nil
	}
	m.logger.Debug("Prepared artwork", "size", humanize.Bytes(uint64(len(jpeg))))
	return jpeg
}

func (m *Manager) writePlaylist(title string, entries []model.PlaylistEntry) {
	format, err := m.settings.Playlist()
	if err != nil || format == model.PlaylistFormatNone {
		return
	}

	creator := audio.NewPlaylistCreator(format, m.settings.M3UExtended)
	name := creator.FileName(title)
	content := creator.CreatePlaylist(title, entries)
	if err := ioutils.WriteFile(filepath.Join(m.settings.Dir(), name), []byte(content)); err != nil {
		m.logger.Warn("Failed to write playlist", "file", name, "error", err)
		return
	}
	m.logger.Info("Created playlist", "file", name, "episodes", len(entries))
}

func (m *Manager) record(res Result) {
	m.processed.Add(1)
	switch res.Outcome {
	case OutcomeSkipped:
		m.skipped.Add(1)
	case OutcomeDownloaded:
		m.downloaded.Add(1)
		m.bytes.Add(res.Bytes)
	case OutcomeFailed:
		m.failed.Add(1)
	}
}

func (m *Manager) onBytes(written, total int64) {
	m.received.Store(written)
	m.expected.Store(total)
}

func (m *Manager) setCurrent(name string) {
	m.mu.Lock()
	m.current = name
	m.mu.Unlock()
	m.received.Store(0)
	m.expected.Store(0)
}

func (m *Manager) stats() Stats {
	return Stats{
		Downloaded: int(m.downloaded.Load()),
		Skipped:    int(m.skipped.Load()),
		Failed:     int(m.failed.Load()),
		Bytes:      m.bytes.Load(),
	}
}

// Progress returns current progress. Safe to call from any goroutine.
func (m *Manager) Progress() Progress {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()

	s := m.stats()
	return Progress{
		Total:           int(m.total.Load()),
		Processed:       int(m.processed.Load()),
		Downloaded:      s.Downloaded,
		Skipped:         s.Skipped,
		Failed:          s.Failed,
		Bytes:           s.Bytes,
		Current:         current,
		CurrentReceived: m.received.Load(),
		CurrentTotal:    m.expected.Load(),
	}
}
