package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// Default retry settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultUserAgent   = "podcast-downloader"
)

var (
	// ErrExhausted is returned by Fetch when every attempt failed.
	ErrExhausted = errors.New("all download attempts failed")

	// ErrInvalidRequest is returned when Fetch is called with an empty URL
	// or an unusable RetryConfig.
	ErrInvalidRequest = errors.New("invalid fetch request")
)

// RetryConfig bounds a Fetch call.
type RetryConfig struct {
	// Timeout bounds connecting, waiting for response headers, and every
	// stall between body reads. It does not bound the whole transfer, so
	// large episodes on slow links still complete.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed wait between a failed attempt and the next one.
	Delay time.Duration
}

// DefaultRetryConfig returns 30s timeout, 3 attempts, 2s delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
	}
}

// Validate reports whether the config can be used for a fetch.
func (r RetryConfig) Validate() error {
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidRequest, r.Timeout)
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidRequest, r.MaxAttempts)
	}
	if r.Delay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative, got %s", ErrInvalidRequest, r.Delay)
	}
	return nil
}

// Client wraps HTTP operations with podcast-downloader configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - Per-attempt timeout handling
//   - File download with retries and progress tracking
//
// Example usage:
//
//	client := NewClient(WithLogger(logger))
//
//	// Download file, retrying with the configured RetryConfig
//	err := client.Fetch(ctx, mp3URL, "/path/to/file.mp3")
type Client struct {
	httpClient *http.Client
	userAgent  string
	retry      RetryConfig
	logger     *slog.Logger
	onProgress func(written, total int64)
}

// Option configures a Client.
type Option func(*Client)

// WithRetry sets the retry configuration used by Fetch.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger that receives retry warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress registers a callback invoked while Fetch streams to disk.
// Parameters are (bytesWrittenThisAttempt, contentLength).
func WithProgress(fn func(written, total int64)) Option {
	return func(c *Client) { c.onProgress = fn }
}

// WithHTTPClient replaces the underlying *http.Client. The client's own
// Timeout field should be zero; Fetch applies its own timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - DefaultRetryConfig() (30s timeout, 3 attempts, 2s delay)
//   - "podcast-downloader" User-Agent header
//   - A transport whose dial, TLS and response-header timeouts follow
//     the retry timeout
func NewClient(opts ...Option) *Client {
	c := &Client{
		userAgent: DefaultUserAgent,
		retry:     DefaultRetryConfig(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: newTransport(c.retry.Timeout)}
	}
	return c
}

func newTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Fetch downloads url into dest, retrying on failure.
//
// Each attempt creates (or truncates) dest and streams the body into it.
// Failed attempts before the last are logged as warnings and followed by
// RetryConfig.Delay. After RetryConfig.MaxAttempts failures Fetch returns
// an error wrapping ErrExhausted and the last attempt's error.
//
// Fetch never removes dest. Cancelling ctx stops retrying immediately.
//
// Example:
//
//	err := client.Fetch(ctx, mp3URL, "/podcasts/2024-01-01_Pilot.mp3")
//	if err != nil {
//	    os.Remove("/podcasts/2024-01-01_Pilot.mp3")
//	}
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	if url == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidRequest)
	}
	if err := c.retry.Validate(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		lastErr = c.downloadFile(ctx, url, dest)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		c.logger.Warn("download attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", c.retry.MaxAttempts,
			"url", url,
			"error", lastErr,
		)
		if err := c.waitForRetry(ctx); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, url, c.retry.MaxAttempts, lastErr)
}

// downloadFile performs one attempt, streaming the body into dest.
func (c *Client) downloadFile(ctx context.Context, url, dest string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()

	var writer io.Writer = file
	if c.onProgress != nil {
		writer = &ProgressWriter{
			Writer:   file,
			Total:    resp.ContentLength,
			OnUpdate: c.onProgress,
		}
	}

	if _, err := io.Copy(writer, newStallReader(resp.Body, c.retry.Timeout, cancel)); err != nil {
		return err
	}
	return file.Close()
}

func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp, nil
}

func (c *Client) waitForRetry(ctx context.Context) error {
	if c.retry.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.retry.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// stallReader cancels the request when no data arrives within timeout.
type stallReader struct {
	r       io.Reader
	timeout time.Duration
	timer   *time.Timer
	stalled atomic.Bool
}

func newStallReader(r io.Reader, timeout time.Duration, cancel context.CancelFunc) *stallReader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &stallReader{r: r, timeout: timeout}
	s.timer = time.AfterFunc(timeout, func() {
		s.stalled.Store(true)
		cancel()
	})
	return s
}

func (s *stallReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil {
		s.timer.Stop()
		if s.stalled.Load() {
			return n, fmt.Errorf("no data received for %s: %w", s.timeout, err)
		}
		return n, err
	}
	s.timer.Reset(s.timeout)
	return n, nil
}
