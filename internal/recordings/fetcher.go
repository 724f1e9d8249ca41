package recordings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrNotFound is returned when every candidate path has been exhausted.
// It is terminal for the call within a run: the call stays missing and
// is retried by a later discovery cycle.
var ErrNotFound = errors.New("recording not found on remote store")

const (
	// defaultMinSize guards against placeholder files. Real call
	// recordings are never a few KB.
	defaultMinSize = 8 * 1024

	// Download timeouts scale with declared file size so a stuck
	// connection can't hang a large download indefinitely while small
	// files still fail fast.
	downloadBaseTimeout = 20 * time.Second
	downloadPerMB       = 15 * time.Second
	downloadMaxTimeout  = 4 * time.Minute
)

// FetchResult is a successfully downloaded recording.
type FetchResult struct {
	Path string
	Data []byte
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Remote      RemoteStore
	MinSize     int64
	StatTimeout time.Duration
	Logger      *slog.Logger
}

// Fetcher downloads recording bytes, probing candidate paths in order.
type Fetcher struct {
	remote      RemoteStore
	minSize     int64
	statTimeout time.Duration
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.MinSize <= 0 {
		cfg.MinSize = defaultMinSize
	}
	if cfg.StatTimeout <= 0 {
		cfg.StatTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Fetcher{
		remote:      cfg.Remote,
		minSize:     cfg.MinSize,
		statTimeout: cfg.StatTimeout,
		logger:      cfg.Logger,
	}
}

// Fetch tries each candidate path in order and returns the first
// complete download. A candidate fails fast on missing file, implausible
// size, stat timeout, or a byte-count mismatch against the stat size;
// the next candidate is then tried. When all candidates fail the error
// wraps ErrNotFound with the per-candidate detail.
func (f *Fetcher) Fetch(ctx context.Context, candidates []string) (*FetchResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate paths", ErrNotFound)
	}

	var failures []string
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := f.fetchOne(ctx, path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			f.logger.Debug("candidate failed", "path", path, "error", err)
			continue
		}

		f.logger.Info("recording downloaded", "path", path, "bytes", len(data))
		return &FetchResult{Path: path, Data: data}, nil
	}

	return nil, fmt.Errorf("%w after %d candidates: %v", ErrNotFound, len(candidates), failures)
}

// fetchOne stats then streams a single candidate.
func (f *Fetcher) fetchOne(ctx context.Context, path string) ([]byte, error) {
	statCtx, cancel := context.WithTimeout(ctx, f.statTimeout)
	info, err := f.remote.Stat(statCtx, path)
	cancel()
	if err != nil {
		return nil, err
	}

	if info.Size == 0 {
		return nil, errors.New("remote file is empty")
	}
	if info.Size < f.minSize {
		return nil, fmt.Errorf("remote file implausibly small: %d bytes (min %d)", info.Size, f.minSize)
	}

	// One transport-level retry per candidate covers connection resets
	// without burning the whole candidate list on a blip.
	data, err := retry.DoWithData(
		func() ([]byte, error) { return f.download(ctx, path, info.Size) },
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// download streams the file and verifies the byte count against the
// stat size. A short read is a corrupted or partial transfer.
func (f *Fetcher) download(ctx context.Context, path string, size int64) ([]byte, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout(size))
	defer cancel()

	stream, err := f.remote.Open(dlCtx, path)
	if err != nil {
		return nil, err
	}

	data, err := readAll(dlCtx, stream, size)
	if err != nil {
		return nil, err
	}

	if int64(len(data)) != size {
		return nil, fmt.Errorf("incomplete transfer: got %d bytes, stat reported %d", len(data), size)
	}
	return data, nil
}

// readAll accumulates the stream under the context deadline. On timeout
// the stream is closed to abort the in-flight transfer and release the
// connection.
func readAll(ctx context.Context, stream io.ReadCloser, sizeHint int64) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer stream.Close()
		buf := bytes.NewBuffer(make([]byte, 0, sizeHint))
		_, err := io.Copy(buf, stream)
		ch <- result{buf.Bytes(), err}
	}()

	select {
	case <-ctx.Done():
		stream.Close()
		return nil, fmt.Errorf("download aborted: %w", ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("stream read: %w", res.err)
		}
		return res.data, nil
	}
}

// downloadTimeout scales the per-download budget with declared size.
func downloadTimeout(size int64) time.Duration {
	mb := time.Duration(size / (1 << 20))
	d := downloadBaseTimeout + mb*downloadPerMB
	if d > downloadMaxTimeout {
		return downloadMaxTimeout
	}
	return d
}
