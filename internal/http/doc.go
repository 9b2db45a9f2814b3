// Package http provides the HTTP client used to fetch feeds, artwork,
// and episode audio.
//
// The Client in this package handles:
//   - User-Agent headers
//   - wget-style timeouts (connect, response headers, read stalls)
//   - Retrying downloads with a fixed delay between attempts
//   - Progress tracking while streaming to disk
//
// # Basic Usage
//
//	client := http.NewClient(
//	    http.WithRetry(http.RetryConfig{Timeout: 30 * time.Second, MaxAttempts: 3, Delay: 2 * time.Second}),
//	    http.WithLogger(logger),
//	)
//
//	// Download an episode, retrying on failure
//	if err := client.Fetch(ctx, mp3URL, "/podcasts/episode.mp3"); err != nil {
//	    if errors.Is(err, http.ErrExhausted) {
//	        // every attempt failed; dest may hold partial content
//	    }
//	}
//
// # Partial Content
//
// Every attempt truncates the destination and restarts from byte zero.
// Fetch never removes the destination: after ErrExhausted, cleaning up
// is the caller's job.
package http
