// Package download turns a podcast feed into files on disk.
//
// # Pipeline
//
// A Pipeline handles one episode at a time:
//
//  1. Derive the file name from the publication date, title and URL
//  2. Skip the episode if that file already exists
//  3. Fetch the enclosure with retries, removing any partial file on failure
//  4. Tag the file when an album name is configured
//
// Process never returns an error. A failed episode is logged and
// reported as OutcomeFailed; the caller moves on to the next one.
//
// # Manager
//
// The Manager runs a whole feed:
//
//	manager := download.NewManager(settings, logger)
//	stats, err := manager.Run(ctx)
//	if errors.Is(err, download.ErrFeedFetch) {
//	    os.Exit(1)
//	}
//
// The feed is downloaded into a temporary directory that is removed when
// Run returns, whatever the outcome. Episodes are processed sequentially
// in feed order. Cancelling ctx stops the run after the current episode's
// partial file has been removed.
//
// # Progress Tracking
//
// Progress returns a snapshot of the counters and the episode currently
// being fetched. It is safe to poll from another goroutine:
//
//	p := manager.Progress()
//	fmt.Printf("%d/%d %s\n", p.Processed, p.Total, p.Current)
package download
