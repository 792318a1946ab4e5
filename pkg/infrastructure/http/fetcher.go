package http

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
	"github.com/andybalholm/brotli"
)

const (
	// DefaultTimeout is the per-request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBodySize caps a single index page
	DefaultMaxBodySize = 16 << 20

	maxRedirects   = 10
	jitterFraction = 0.2
	previewBytes   = 200
)

// FetchError is returned for transport failures, timeouts and non-2xx responses
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher implements service.PageFetcher
type Fetcher struct {
	client      *http.Client
	userAgent   string
	delay       time.Duration
	maxBodySize int64
	sleep       func(ctx context.Context, d time.Duration) error
}

// Config holds HTTP fetcher configuration
type Config struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
	Delay       time.Duration
	Transport   http.RoundTripper
}

// NewFetcher creates a new HTTP fetcher
func NewFetcher(config Config) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: config.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent:   config.UserAgent,
		delay:       config.Delay,
		maxBodySize: config.MaxBodySize,
		sleep:       sleepContext,
	}
}

// Fetch implements service.PageFetcher.
// The delay before the request honours ctx; the request itself does not,
// so an in-flight fetch completes (or times out) after cancellation.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.Page, error) {
	if err := f.sleep(ctx, f.Delay()); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, body, err := f.get(context.WithoutCancel(ctx), url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	page := &entity.Page{
		URL:         url,
		FinalURL:    finalURL(resp, url),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Markup:      body,
		Duration:    time.Since(start),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return page, nil
}

// Probe issues a single request without delay and summarizes the response
func (f *Fetcher) Probe(ctx context.Context, url string) (*entity.ProbeResult, error) {
	resp, body, err := f.get(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	preview := body
	if len(preview) > previewBytes {
		preview = preview[:previewBytes]
	}

	result := &entity.ProbeResult{
		URL:           url,
		FinalURL:      finalURL(resp, url),
		StatusCode:    resp.StatusCode,
		ContentLength: len(body),
		Preview:       string(preview),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return result, nil
}

// Delay returns the request delay plus a uniform jitter of up to 20% of it
func (f *Fetcher) Delay() time.Duration {
	if f.delay <= 0 {
		return 0
	}
	jitter := time.Duration(rand.Int63n(int64(float64(f.delay)*jitterFraction) + 1))
	return f.delay + jitter
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", f.maxBodySize)
	}
	return body, nil
}

func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
