package http

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(config Config) *Fetcher {
	f := NewFetcher(config)
	f.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return f
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<a href="a/">a/</a>`))
	}))
	defer server.Close()

	f := newTestFetcher(Config{UserAgent: "IndexCrawler/test"})
	page, err := f.Fetch(context.Background(), server.URL+"/files/")
	require.NoError(t, err)

	assert.Equal(t, "IndexCrawler/test", gotUA)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, server.URL+"/files/", page.FinalURL)
	assert.Equal(t, "text/html", page.ContentType)
	assert.Equal(t, `<a href="a/">a/</a>`, string(page.Markup))
}

func TestFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page, err := newTestFetcher(Config{}).Fetch(context.Background(), server.URL+"/files")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/files/", page.FinalURL)
}

func TestFetcher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestFetcher(Config{}).Fetch(context.Background(), server.URL+"/missing/")
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "/missing/")
}

func TestFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestFetcher(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), server.URL+"/slow/")

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
}

func TestFetcher_DecodesContentEncoding(t *testing.T) {
	const body = `<a href="x.zip">x.zip</a>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		switch r.URL.Path {
		case "/gzip/":
			zw := gzip.NewWriter(&buf)
			zw.Write([]byte(body))
			zw.Close()
			w.Header().Set("Content-Encoding", "gzip")
		case "/br/":
			bw := brotli.NewWriter(&buf)
			bw.Write([]byte(body))
			bw.Close()
			w.Header().Set("Content-Encoding", "br")
		}
		w.Write(buf.Bytes())
	}))
	defer server.Close()

	f := newTestFetcher(Config{})
	for _, path := range []string{"/gzip/", "/br/"} {
		page, err := f.Fetch(context.Background(), server.URL+path)
		require.NoError(t, err, path)
		assert.Equal(t, body, string(page.Markup), path)
	}
}

func TestFetcher_MaxBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 1024))
	}))
	defer server.Close()

	_, err := newTestFetcher(Config{MaxBodySize: 100}).Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestFetcher_CancelledBeforeRequest(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(Config{Delay: time.Hour})
	_, err := f.Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits)
}

func TestFetcher_Delay(t *testing.T) {
	f := NewFetcher(Config{Delay: 500 * time.Millisecond})
	for i := 0; i < 100; i++ {
		d := f.Delay()
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 600*time.Millisecond)
	}

	assert.Zero(t, NewFetcher(Config{}).Delay())
}

func TestFetcher_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("b"), 500))
	}))
	defer server.Close()

	result, err := NewFetcher(Config{Delay: time.Hour}).Probe(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, 500, result.ContentLength)
	assert.Len(t, result.Preview, previewBytes)
}
