package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/podcast-downloader/internal/config"
	"github.com/handiism/podcast-downloader/internal/download"
	ioutils "github.com/handiism/podcast-downloader/internal/io"
	"github.com/handiism/podcast-downloader/internal/logging"
)

type cliFlags struct {
	configPath    string
	feedURL       string
	dir           string
	album         string
	verbose       bool
	timeout       int
	maxAttempts   int
	strict        bool
	tagger        string
	albumFromFeed bool
	embedArtwork  bool
	playlist      string
	logFile       string
}

func newRootCommand() *cobra.Command {
	cmd, _ := buildRootCommand()
	return cmd
}

func buildRootCommand() (*cobra.Command, *cliFlags) {
	var f cliFlags

	rootCmd := &cobra.Command{
		Use:   "podcast-dl -u <rss_feed_url> [-d <download_directory>] [-a <album_name>] [-v] [-t <timeout>]",
		Short: "Download every episode of a podcast RSS feed",
		Long: `podcast-dl downloads the episodes referenced by an RSS feed into a
directory, naming each file <date>_<title>.<ext>. Episodes already on disk
are skipped, so re-running against the same feed only fetches new ones.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, &f)
			if err != nil {
				return err
			}
			return run(cmd, settings)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&f.feedURL, "url", "u", "", "RSS feed URL (required)")
	flags.StringVarP(&f.dir, "dir", "d", "", "Download directory (default ~/Podcasts)")
	flags.StringVarP(&f.album, "album", "a", "", "Album name to tag downloaded files with")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "Report episodes that already exist")
	flags.IntVarP(&f.timeout, "timeout", "t", 0, "Network timeout in seconds (default 30)")
	flags.IntVar(&f.maxAttempts, "max-attempts", 0, "Download attempts per file (default 3)")
	flags.BoolVar(&f.strict, "strict", false, "Keep distinct episodes whose file names collide")
	flags.StringVar(&f.tagger, "tagger", "", "Tagger: auto, id3, command, none (default auto)")
	flags.BoolVar(&f.albumFromFeed, "album-from-feed", false, "Use the feed title as album when --album is not set")
	flags.BoolVar(&f.embedArtwork, "embed-artwork", false, "Embed the feed artwork into downloaded files")
	flags.StringVar(&f.playlist, "playlist", "", "Write a playlist: m3u, pls, wpl, zpl")
	flags.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	flags.StringVarP(&f.configPath, "config", "c", "", "Configuration file path")

	return rootCmd, &f
}

// loadSettings reads the config file and applies explicitly set flags on
// top of it.
func loadSettings(cmd *cobra.Command, f *cliFlags) (*config.Settings, error) {
	path := f.configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("url") {
		settings.FeedURL = f.feedURL
	}
	if changed("dir") {
		settings.DownloadDir = f.dir
	}
	if changed("album") {
		settings.Album = f.album
	}
	if changed("verbose") {
		settings.Verbose = f.verbose
	}
	if changed("timeout") {
		settings.TimeoutSeconds = f.timeout
	}
	if changed("max-attempts") {
		settings.MaxAttempts = f.maxAttempts
	}
	if changed("strict") {
		settings.StrictDedup = f.strict
	}
	if changed("tagger") {
		settings.Tagger = f.tagger
	}
	if changed("album-from-feed") {
		settings.AlbumFromFeed = f.albumFromFeed
	}
	if changed("embed-artwork") {
		settings.EmbedArtwork = f.embedArtwork
	}
	if changed("playlist") {
		settings.PlaylistFormat = f.playlist
	}
	if changed("log-file") {
		settings.LogFile = f.logFile
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return settings, nil
}

func run(cmd *cobra.Command, settings *config.Settings) error {
	logger, closeLog, err := logging.New(logging.Options{
		Level:   settings.LogLevel,
		Writer:  cmd.OutOrStdout(),
		LogFile: settings.LogFile,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	if err := ioutils.EnsureDir(settings.Dir()); err != nil {
		logger.Error("Failed to create download directory", "dir", settings.Dir(), "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	manager := download.NewManager(settings, logger)

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		return watchSignals(gctx, done, logger)
	})
	g.Go(func() error {
		defer close(done)
		_, err := manager.Run(gctx)
		return err
	})
	return g.Wait()
}

// watchSignals returns errInterrupted on SIGINT or SIGTERM, cancelling the
// group. It returns nil once done is closed.
func watchSignals(ctx context.Context, done <-chan struct{}, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Warn("Interrupted, cancelling", "signal", sig.String())
		return errInterrupted
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
