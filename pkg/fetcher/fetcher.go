package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dtnitsch/ngram-year-rank/pkg/caching"
)

// Fetcher downloads remote corpus files, optionally through a local cache.
type Fetcher struct {
	client *http.Client
	cache  *caching.Cache
}

// NewFetcher returns a Fetcher. cache may be nil to always stream from the network.
func NewFetcher(cache *caching.Cache) *Fetcher {
	return &Fetcher{
		client: &http.Client{},
		cache:  cache,
	}
}

// IsRemote reports whether path names an http(s) resource.
func IsRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Open returns the body of url. With a cache configured the body is
// downloaded once and then served from disk until it expires.
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	if f.cache != nil {
		if path, ok := f.cache.Get(url); ok {
			return os.Open(path)
		}
	}

	body, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if f.cache == nil {
		return body, nil
	}
	defer body.Close()

	path, err := f.cache.Set(url, body)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s, status code: %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
