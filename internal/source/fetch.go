// Package source fetches the production sheet and parses it into raw rows.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrFetch marks a failure to obtain the source text. A fetch failure
// aborts one load attempt; nothing is retried automatically.
var ErrFetch = errors.New("fetching source")

// maxSourceBytes bounds the size of a source document.
const maxSourceBytes = 64 << 20

// readLimited reads all of r, failing when it holds more than limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("source exceeds %d bytes", limit)
	}
	return data, nil
}

// Fetcher retrieves the full source text.
type Fetcher interface {
	// Fetch returns the complete source document.
	Fetch(ctx context.Context) ([]byte, error)

	// Location describes where the source lives.
	Location() string
}

// NewFetcher picks a fetcher for location: http(s) URLs use HTTPFetcher,
// anything else is treated as a local path.
func NewFetcher(location string, logger *slog.Logger) Fetcher {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPFetcher(location, logger)
	}
	return NewFileFetcher(location, logger)
}

// FileFetcher reads the source from the local filesystem.
type FileFetcher struct {
	path   string
	limit  int64
	logger *slog.Logger
}

// NewFileFetcher creates a fetcher for a local file.
func NewFileFetcher(path string, logger *slog.Logger) *FileFetcher {
	return &FileFetcher{path: path, limit: maxSourceBytes, logger: logger}
}

func (f *FileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrFetch, f.path, err)
	}
	defer file.Close()

	data, err := readLimited(file, f.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFetch, f.path, err)
	}

	f.logger.Debug("read source file", "path", f.path, "bytes", len(data))
	return data, nil
}

func (f *FileFetcher) Location() string { return f.path }

// HTTPFetcher downloads the source over HTTP.
type HTTPFetcher struct {
	url    string
	limit  int64
	client *http.Client
	logger *slog.Logger
}

// NewHTTPFetcher creates a fetcher for a URL.
func NewHTTPFetcher(url string, logger *slog.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		url:    url,
		limit:  maxSourceBytes,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling %s: %w", ErrFetch, h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s returned %d: %s", ErrFetch, h.url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := readLimited(resp.Body, h.limit)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}

	h.logger.Debug("downloaded source", "url", h.url, "bytes", len(data))
	return data, nil
}

func (h *HTTPFetcher) Location() string { return h.url }

// StaticFetcher serves a fixed document. Useful for tests and for sources
// already held in memory.
type StaticFetcher struct {
	Data []byte
	Err  error
}

func (s StaticFetcher) Fetch(_ context.Context) ([]byte, error) {
	if s.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, s.Err)
	}
	return s.Data, nil
}

func (s StaticFetcher) Location() string { return "memory" }
