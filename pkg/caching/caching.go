package caching

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Cache provides a simple file-based cache of downloaded corpus files with a TTL.
type Cache struct {
	path string
	ttl  time.Duration
}

// NewCache creates a new Cache instance.
// The cache path will be created if it doesn't exist.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{
		path: path,
		ttl:  ttl,
	}, nil
}

// key generates a SHA256 hash of the URL to use as a filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", hash)
}

// Get returns the cached file path for url and true if it exists and is not expired.
func (c *Cache) Get(url string) (string, bool) {
	filePath := filepath.Join(c.path, c.key(url))

	info, err := os.Stat(filePath)
	if err != nil {
		return "", false
	}

	if time.Since(info.ModTime()) > c.ttl {
		return "", false
	}

	return filePath, true
}

// Set streams r into the cache entry for url and returns its path.
// The entry only becomes visible once fully written.
func (c *Cache) Set(url string, r io.Reader) (string, error) {
	filePath := filepath.Join(c.path, c.key(url))

	tmp, err := os.CreateTemp(c.path, c.key(url)+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create cache entry: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return "", fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return filePath, nil
}
