package assetcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Fetcher retrieves an asset from upstream by its request key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (Entry, error)
}

// HTTPFetcher resolves keys against an origin and issues plain GETs.
type HTTPFetcher struct {
	origin string
	client *http.Client
}

// HTTPFetcherOption configures an HTTPFetcher.
type HTTPFetcherOption func(*HTTPFetcher)

// WithFetchClient overrides the HTTP client used for upstream fetches.
func WithFetchClient(hc *http.Client) HTTPFetcherOption {
	return func(f *HTTPFetcher) {
		if hc != nil {
			f.client = hc
		}
	}
}

// NewHTTPFetcher creates a fetcher bound to the given origin.
func NewHTTPFetcher(origin string, opts ...HTTPFetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		origin: strings.TrimRight(origin, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch issues a GET for the key. Absolute keys are fetched as-is;
// path keys are resolved against the origin. Transport failures return
// an error; HTTP error statuses come back inside the entry.
func (f *HTTPFetcher) Fetch(ctx context.Context, key string) (Entry, error) {
	url := key
	if strings.HasPrefix(key, "/") {
		url = f.origin + key
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("assetcache: build fetch request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Entry{}, fmt.Errorf("assetcache: fetch %q: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("assetcache: read %q: %w", key, err)
	}

	return Entry{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}
