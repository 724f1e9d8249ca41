package recordings

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Fetching is the downloader contract the cache wraps.
type Fetching interface {
	Fetch(ctx context.Context, candidates []string) (*FetchResult, error)
}

// CachingFetcher keeps downloaded audio on local disk so a reprocessed
// call does not hit the SFTP server twice. Cache misses fall through to
// the wrapped fetcher; cache write failures are logged and ignored.
type CachingFetcher struct {
	inner  Fetching
	dir    string
	logger *slog.Logger
}

// NewCachingFetcher wraps a fetcher with a disk cache rooted at dir.
func NewCachingFetcher(inner Fetching, dir string, logger *slog.Logger) *CachingFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingFetcher{inner: inner, dir: dir, logger: logger}
}

// Fetch checks the cache for any candidate before downloading.
func (c *CachingFetcher) Fetch(ctx context.Context, candidates []string) (*FetchResult, error) {
	for _, cand := range candidates {
		cached := c.cachePath(cand)
		data, err := os.ReadFile(cached)
		if err == nil && int64(len(data)) >= MinAudioBytes {
			c.logger.Debug("audio cache hit", "path", cand)
			return &FetchResult{Path: cand, Data: data}, nil
		}
	}

	res, err := c.inner.Fetch(ctx, candidates)
	if err != nil {
		return nil, err
	}

	cached := c.cachePath(res.Path)
	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err == nil {
		if err := os.WriteFile(cached, res.Data, 0o644); err != nil {
			c.logger.Warn("audio cache write failed", "path", cached, "error", err)
		}
	}
	return res, nil
}

// cachePath mirrors the remote layout under the cache root.
func (c *CachingFetcher) cachePath(remotePath string) string {
	rel := strings.TrimPrefix(strings.TrimPrefix(remotePath, "./"), "/")
	return filepath.Join(c.dir, filepath.FromSlash(rel))
}
