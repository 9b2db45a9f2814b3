package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/podcast-downloader/internal/config"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title>Test Show</title>
  <itunes:image href="%[1]s/cover.png"/>
  <item><title>One</title><pubDate>Mon, 01 Jan 2024 00:00:00 GMT</pubDate><enclosure url="%[1]s/1.mp3"/></item>
  <item><title>Two</title><pubDate>Tue, 02 Jan 2024 00:00:00 GMT</pubDate><enclosure url="%[1]s/2.mp3"/></item>
  <item><title>Three</title><pubDate>Wed, 03 Jan 2024 00:00:00 GMT</pubDate><enclosure url="%[1]s/3.mp3"/></item>
</channel>
</rss>`

type feedServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests map[string]int
}

// newFeedServer serves testFeed, a PNG cover, and episodes. Paths listed
// in broken always answer 500.
func newFeedServer(t *testing.T, broken ...string) *feedServer {
	t.Helper()
	fs := &feedServer{requests: map[string]int{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests[r.URL.Path]++
		fs.mu.Unlock()

		for _, b := range broken {
			if r.URL.Path == b {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
		}
		switch {
		case r.URL.Path == "/feed.xml":
			fmt.Fprintf(w, testFeed, fs.URL)
		case r.URL.Path == "/cover.png":
			img := image.NewRGBA(image.Rect(0, 0, 64, 64))
			img.Set(1, 1, color.RGBA{R: 255, A: 255})
			_ = png.Encode(w, img)
		case strings.HasSuffix(r.URL.Path, ".mp3"):
			fmt.Fprintf(w, "audio for %s", r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) count(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[path]
}

func testSettings(t *testing.T, feedURL string) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.FeedURL = feedURL
	s.DownloadDir = t.TempDir()
	s.MaxAttempts = 2
	s.RetryDelaySeconds = 0
	s.Tagger = "none"
	return s
}

func TestManager_PartialFailureIsolation(t *testing.T) {
	srv := newFeedServer(t, "/2.mp3")
	settings := testSettings(t, srv.URL+"/feed.xml")
	logger, buf := testLogger()

	stats, err := NewManager(settings, logger).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.Downloaded != 2 || stats.Failed != 1 || stats.Skipped != 0 {
		t.Errorf("Stats = %+v", stats)
	}
	for _, name := range []string{"2024-01-01_One.mp3", "2024-01-03_Three.mp3"} {
		if _, err := os.Stat(filepath.Join(settings.DownloadDir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(settings.DownloadDir, "2024-01-02_Two.mp3")); !os.IsNotExist(err) {
		t.Errorf("failed episode left a file behind: %v", err)
	}
	if got := srv.count("/2.mp3"); got != 2 {
		t.Errorf("failed episode requested %d times, want 2", got)
	}
	if !strings.Contains(buf.String(), "Process completed successfully") {
		t.Errorf("missing summary: %q", buf.String())
	}
}

func TestManager_Idempotent(t *testing.T) {
	srv := newFeedServer(t)
	settings := testSettings(t, srv.URL+"/feed.xml")

	first, err := NewManager(settings, nil).Run(context.Background())
	if err != nil || first.Downloaded != 3 {
		t.Fatalf("first run: %+v, %v", first, err)
	}

	second, err := NewManager(settings, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Downloaded != 0 || second.Skipped != 3 {
		t.Errorf("second run Stats = %+v, want all skipped", second)
	}
	for _, p := range []string{"/1.mp3", "/2.mp3", "/3.mp3"} {
		if got := srv.count(p); got != 1 {
			t.Errorf("%s requested %d times across runs, want 1", p, got)
		}
	}
}

func TestManager_FeedFetchFailureIsFatal(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	srv := newFeedServer(t, "/feed.xml")
	settings := testSettings(t, srv.URL+"/feed.xml")

	_, err := NewManager(settings, nil).Run(context.Background())
	if !errors.Is(err, ErrFeedFetch) {
		t.Fatalf("error = %v, want ErrFeedFetch", err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(tmp, tempDirPattern+"*"))
	if len(leftovers) != 0 {
		t.Errorf("temp dirs not cleaned: %v", leftovers)
	}
	entries, _ := os.ReadDir(settings.DownloadDir)
	if len(entries) != 0 {
		t.Errorf("no episodes should be fetched, found %d entries", len(entries))
	}
}

func TestManager_CancelledContext(t *testing.T) {
	srv := newFeedServer(t)
	settings := testSettings(t, srv.URL+"/feed.xml")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewManager(settings, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrFeedFetch) {
		t.Error("interruption must not be reported as a feed failure")
	}
}

func TestManager_PlaylistAndArtwork(t *testing.T) {
	srv := newFeedServer(t)
	settings := testSettings(t, srv.URL+"/feed.xml")
	settings.PlaylistFormat = "m3u"
	settings.M3UExtended = false
	settings.EmbedArtwork = true
	settings.ArtworkMaxSize = 16
	settings.AlbumFromFeed = true

	tagger := &fakeTagger{}
	m := NewManager(settings, nil, WithTagger(tagger))
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(settings.DownloadDir, "Test_Show.m3u"))
	if err != nil {
		t.Fatalf("playlist missing: %v", err)
	}
	want := "2024-01-01_One.mp3\n2024-01-02_Two.mp3\n2024-01-03_Three.mp3\n"
	if string(data) != want {
		t.Errorf("playlist = %q, want %q", data, want)
	}

	if len(tagger.calls) != 3 {
		t.Fatalf("tagger called %d times, want 3", len(tagger.calls))
	}
	meta := tagger.calls[0]
	if meta.Album != "Test Show" {
		t.Errorf("Album = %q, want channel title", meta.Album)
	}
	if !bytes.HasPrefix(meta.Artwork, []byte{0xFF, 0xD8}) {
		t.Error("artwork should be embedded as JPEG")
	}
	if srv.count("/cover.png") != 1 {
		t.Errorf("cover fetched %d times, want 1", srv.count("/cover.png"))
	}
}

func TestManager_Progress(t *testing.T) {
	srv := newFeedServer(t, "/3.mp3")
	settings := testSettings(t, srv.URL+"/feed.xml")

	m := NewManager(settings, nil)
	if _, err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	p := m.Progress()
	if p.Total != 3 || p.Processed != 3 || p.Downloaded != 2 || p.Failed != 1 {
		t.Errorf("Progress() = %+v", p)
	}
	if p.Current != "" {
		t.Errorf("Current = %q after run, want empty", p.Current)
	}
	if p.Bytes == 0 {
		t.Error("Bytes should count downloaded episodes")
	}
}
