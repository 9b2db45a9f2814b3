package download

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/podcast-downloader/internal/audio"
	"github.com/handiism/podcast-downloader/internal/logging"
	"github.com/handiism/podcast-downloader/internal/model"
)

// fakeFetcher writes a fixed body for known URLs. URLs in fail get a
// partial file followed by an error.
type fakeFetcher struct {
	mu    sync.Mutex
	body  map[string]string
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, dest string) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.fail[url] {
		_ = os.WriteFile(dest, []byte("partial"), 0o644)
		return errors.New("connection reset")
	}
	return os.WriteFile(dest, []byte(f.body[url]), 0o644)
}

type fakeTagger struct {
	err   error
	calls []audio.Metadata
}

func (t *fakeTagger) Tag(_ context.Context, _ string, meta audio.Metadata) error {
	t.calls = append(t.calls, meta)
	return t.err
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewWithWriters(&buf, nil, slog.LevelDebug), &buf
}

var pilot = model.Episode{
	EnclosureURL: "http://x/1.mp3",
	Title:        "Hello World!",
	PubDate:      "Mon, 01 Jan 2024 00:00:00 GMT",
}

func TestPipeline_Downloads(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: map[string]string{pilot.EnclosureURL: "audio"}}
	logger, buf := testLogger()

	res := NewPipeline(PipelineConfig{Dir: dir}, fetcher, nil, logger).Process(context.Background(), pilot)

	if res.Outcome != OutcomeDownloaded {
		t.Fatalf("Outcome = %v, want downloaded", res.Outcome)
	}
	if res.File != "2024-01-01_Hello_World.mp3" || res.Bytes != 5 {
		t.Errorf("Result = %+v", res)
	}
	if !strings.Contains(buf.String(), "Download completed") {
		t.Errorf("missing completion log: %q", buf.String())
	}
}

func TestPipeline_SkipsExistingWithoutFetching(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, pilot.Filename()), []byte("old"), 0o644); err != nil {
			t.Fatal(err)
		}
		fetcher := &fakeFetcher{}
		logger, buf := testLogger()

		res := NewPipeline(PipelineConfig{Dir: dir, Verbose: verbose}, fetcher, nil, logger).Process(context.Background(), pilot)

		if res.Outcome != OutcomeSkipped {
			t.Errorf("verbose=%v: Outcome = %v, want skipped", verbose, res.Outcome)
		}
		if len(fetcher.calls) != 0 {
			t.Errorf("verbose=%v: fetcher called %d times", verbose, len(fetcher.calls))
		}
		notice := strings.Contains(buf.String(), "Already exists")
		if notice != verbose {
			t.Errorf("verbose=%v: skip notice logged = %v", verbose, notice)
		}
	}
}

func TestPipeline_DirectoryIsNotAnExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, pilot.Filename()), 0o755); err != nil {
		t.Fatal(err)
	}
	fetcher := &fakeFetcher{body: map[string]string{}}

	res := NewPipeline(PipelineConfig{Dir: dir}, fetcher, nil, nil).Process(context.Background(), pilot)

	if res.Outcome == OutcomeSkipped {
		t.Error("a directory must not count as an existing episode")
	}
}

func TestPipeline_FailureRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{fail: map[string]bool{pilot.EnclosureURL: true}}
	logger, buf := testLogger()

	res := NewPipeline(PipelineConfig{Dir: dir}, fetcher, nil, logger).Process(context.Background(), pilot)

	if res.Outcome != OutcomeFailed || res.Err == nil {
		t.Fatalf("Result = %+v, want failure", res)
	}
	if _, err := os.Stat(filepath.Join(dir, pilot.Filename())); !os.IsNotExist(err) {
		t.Errorf("partial file should be removed, stat err = %v", err)
	}
	if !strings.Contains(buf.String(), "[ERROR]") || !strings.Contains(buf.String(), pilot.EnclosureURL) {
		t.Errorf("failure should be logged at ERROR with the URL: %q", buf.String())
	}
}

func TestPipeline_TagsOnlyWithAlbum(t *testing.T) {
	tests := []struct {
		name      string
		cfg       PipelineConfig
		wantCalls int
	}{
		{name: "no album", cfg: PipelineConfig{}, wantCalls: 0},
		{name: "album", cfg: PipelineConfig{Album: "My Show"}, wantCalls: 1},
		{name: "strict records source", cfg: PipelineConfig{Strict: true}, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Dir = t.TempDir()
			fetcher := &fakeFetcher{body: map[string]string{pilot.EnclosureURL: "audio"}}
			tagger := &fakeTagger{}

			NewPipeline(tt.cfg, fetcher, tagger, nil).Process(context.Background(), pilot)

			if len(tagger.calls) != tt.wantCalls {
				t.Fatalf("tagger called %d times, want %d", len(tagger.calls), tt.wantCalls)
			}
			if tt.wantCalls == 1 {
				meta := tagger.calls[0]
				if meta.Album != tt.cfg.Album || meta.SourceURL != pilot.EnclosureURL || meta.Date != "2024-01-01" {
					t.Errorf("Metadata = %+v", meta)
				}
			}
		})
	}
}

func TestPipeline_TagFailureKeepsFile(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{body: map[string]string{pilot.EnclosureURL: "audio"}}
	tagger := &fakeTagger{err: errors.New("bad frame")}
	logger, buf := testLogger()

	res := NewPipeline(PipelineConfig{Dir: dir, Album: "Show"}, fetcher, tagger, logger).Process(context.Background(), pilot)

	if res.Outcome != OutcomeDownloaded {
		t.Fatalf("Outcome = %v, want downloaded", res.Outcome)
	}
	if _, err := os.Stat(filepath.Join(dir, res.File)); err != nil {
		t.Errorf("file should be kept after tag failure: %v", err)
	}
	if !strings.Contains(buf.String(), "[WARNING]") {
		t.Errorf("tag failure should be a warning: %q", buf.String())
	}
}

func writeTaggedMP3(t *testing.T, path, source string) {
	t.Helper()
	data := append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 256)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := audio.NewID3Tagger(nil).Tag(context.Background(), path, audio.Metadata{SourceURL: source}); err != nil {
		t.Fatal(err)
	}
}

func TestPipeline_StrictDedup(t *testing.T) {
	other := pilot
	other.EnclosureURL = "http://x/other.mp3"

	t.Run("same source is skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeTaggedMP3(t, filepath.Join(dir, pilot.Filename()), pilot.EnclosureURL)
		fetcher := &fakeFetcher{}

		res := NewPipeline(PipelineConfig{Dir: dir, Strict: true}, fetcher, nil, nil).Process(context.Background(), pilot)
		if res.Outcome != OutcomeSkipped {
			t.Errorf("Outcome = %v, want skipped", res.Outcome)
		}
	})

	t.Run("different source is disambiguated", func(t *testing.T) {
		dir := t.TempDir()
		writeTaggedMP3(t, filepath.Join(dir, pilot.Filename()), pilot.EnclosureURL)
		fetcher := &fakeFetcher{body: map[string]string{other.EnclosureURL: "other audio"}}

		p := NewPipeline(PipelineConfig{Dir: dir, Strict: true}, fetcher, nil, nil)
		res := p.Process(context.Background(), other)
		if res.Outcome != OutcomeDownloaded {
			t.Fatalf("Outcome = %v, want downloaded", res.Outcome)
		}
		if res.File != other.DisambiguatedFilename() {
			t.Errorf("File = %q, want %q", res.File, other.DisambiguatedFilename())
		}

		if again := p.Process(context.Background(), other); again.Outcome != OutcomeSkipped {
			t.Errorf("second pass Outcome = %v, want skipped", again.Outcome)
		}
	})

	t.Run("default mode keeps collision", func(t *testing.T) {
		dir := t.TempDir()
		writeTaggedMP3(t, filepath.Join(dir, pilot.Filename()), pilot.EnclosureURL)
		fetcher := &fakeFetcher{}

		res := NewPipeline(PipelineConfig{Dir: dir}, fetcher, nil, nil).Process(context.Background(), other)
		if res.Outcome != OutcomeSkipped {
			t.Errorf("Outcome = %v, want skipped", res.Outcome)
		}
	})
}

func TestOutcome_String(t *testing.T) {
	if OutcomeSkipped.String() != "skipped" || OutcomeDownloaded.String() != "downloaded" || OutcomeFailed.String() != "failed" {
		t.Error("unexpected Outcome names")
	}
}
