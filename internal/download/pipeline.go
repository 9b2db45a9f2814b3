package download

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/handiism/podcast-downloader/internal/audio"
	ioutils "github.com/handiism/podcast-downloader/internal/io"
	"github.com/handiism/podcast-downloader/internal/model"
)

// Fetcher downloads url into dest, overwriting dest.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Outcome is the result of processing one episode.
type Outcome int

const (
	// OutcomeSkipped means the target file already existed. No network
	// request was made.
	OutcomeSkipped Outcome = iota

	// OutcomeDownloaded means the episode was fetched. Tagging may still
	// have failed; that is only logged.
	OutcomeDownloaded

	// OutcomeFailed means every fetch attempt failed and any partial file
	// was removed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what Process did with an episode.
type Result struct {
	Outcome Outcome
	File    string // base name of the target inside the download directory
	Bytes   int64  // size on disk after a download
	Err     error
}

// PipelineConfig holds the per-run inputs shared by every episode.
type PipelineConfig struct {
	Dir     string
	Album   string
	Verbose bool

	// Strict enables source URL checks on existing files, so distinct
	// episodes whose names collide are both kept.
	Strict bool

	// Artwork is embedded by taggers that support it. JPEG.
	Artwork []byte
}

// Pipeline turns one episode into a file on disk: derive the name, skip
// if present, fetch, tag.
type Pipeline struct {
	cfg     PipelineConfig
	fetcher Fetcher
	tagger  audio.Tagger
	logger  *slog.Logger
}

// NewPipeline creates a Pipeline. tagger may be nil, in which case files
// are never tagged.
func NewPipeline(cfg PipelineConfig, fetcher Fetcher, tagger audio.Tagger, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, fetcher: fetcher, tagger: tagger, logger: logger}
}

// Process handles a single episode. It never returns an error; failures
// are reported in the Result and logged.
func (p *Pipeline) Process(ctx context.Context, ep model.Episode) Result {
	name, exists := p.target(ep)
	if exists {
		if p.cfg.Verbose {
			p.logger.Info("Already exists", "file", name)
		}
		return Result{Outcome: OutcomeSkipped, File: name}
	}

	path := filepath.Join(p.cfg.Dir, name)
	p.logger.Info("Downloading", "file", name)

	if err := p.fetcher.Fetch(ctx, ep.EnclosureURL, path); err != nil {
		if rmErr := ioutils.RemovePartial(path); rmErr != nil {
			p.logger.Warn("Failed to remove partial file", "file", name, "error", rmErr)
		}
		if errors.Is(err, context.Canceled) {
			p.logger.Warn("Download interrupted", "file", name)
		} else {
			p.logger.Error("Failed to download", "url", ep.EnclosureURL, "error", err)
		}
		return Result{Outcome: OutcomeFailed, File: name, Err: err}
	}

	p.logger.Info("Download completed", "file", name)
	p.tag(ctx, path, name, ep)

	res := Result{Outcome: OutcomeDownloaded, File: name}
	if info, err := os.Stat(path); err == nil {
		res.Bytes = info.Size()
	}
	return res
}

// target picks the file name for ep and reports whether it is already
// on disk.
func (p *Pipeline) target(ep model.Episode) (string, bool) {
	name := ep.Filename()
	if !ioutils.IsRegularFile(filepath.Join(p.cfg.Dir, name)) {
		return name, false
	}
	if !p.cfg.Strict {
		return name, true
	}

	// A file without a recorded source cannot be told apart; treat it as
	// the same episode.
	recorded, ok := audio.SourceURL(filepath.Join(p.cfg.Dir, name))
	if !ok || recorded == ep.EnclosureURL {
		return name, true
	}

	alt := ep.DisambiguatedFilename()
	p.logger.Debug("Name collision with a different episode", "file", name, "using", alt)
	return alt, ioutils.IsRegularFile(filepath.Join(p.cfg.Dir, alt))
}

func (p *Pipeline) tag(ctx context.Context, path, name string, ep model.Episode) {
	if p.tagger == nil {
		return
	}
	if p.cfg.Album == "" && !p.cfg.Strict && len(p.cfg.Artwork) == 0 {
		return
	}

	meta := audio.Metadata{
		Album:     p.cfg.Album,
		Title:     ep.Title,
		Date:      ep.Date(),
		SourceURL: ep.EnclosureURL,
		Artwork:   p.cfg.Artwork,
	}
	if err := p.tagger.Tag(ctx, path, meta); err != nil {
		p.logger.Warn("Failed to tag", "file", name, "error", err)
		return
	}
	if p.cfg.Album != "" {
		p.logger.Info("Tagged album", "album", p.cfg.Album, "file", name)
	}
}
