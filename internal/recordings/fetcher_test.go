package recordings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRemote is an in-memory RemoteStore.
type fakeRemote struct {
	mu        sync.Mutex
	files     map[string][]byte
	statSlow  map[string]time.Duration // Stat hangs this long (or until ctx)
	truncate  map[string]int           // stream serves this many fewer bytes than stat reports
	statCalls []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:    make(map[string][]byte),
		statSlow: make(map[string]time.Duration),
		truncate: make(map[string]int),
	}
}

func (f *fakeRemote) Stat(ctx context.Context, path string) (FileInfo, error) {
	f.mu.Lock()
	f.statCalls = append(f.statCalls, path)
	delay := f.statSlow[path]
	data, ok := f.files[path]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return FileInfo{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if !ok {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, ErrFileNotExist)
	}
	return FileInfo{Size: int64(len(data))}, nil
}

func (f *fakeRemote) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, ErrFileNotExist)
	}
	if cut := f.truncate[path]; cut > 0 && cut < len(data) {
		data = data[:len(data)-cut]
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func audioBytes(n int) []byte {
	return bytes.Repeat([]byte{0xAB}, n)
}

func testFetcher(remote RemoteStore) *Fetcher {
	return NewFetcher(FetcherConfig{
		Remote:      remote,
		MinSize:     1024,
		StatTimeout: 100 * time.Millisecond,
	})
}

func TestFetchFallsThroughCandidates(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./2026/03/14/call.wav"] = audioBytes(10_000)

	f := testFetcher(remote)
	res, err := f.Fetch(context.Background(), []string{
		"./2026/03/15/call.wav", // missing
		"./2026/03/14/call.wav",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Path != "./2026/03/14/call.wav" {
		t.Errorf("resolved path = %q", res.Path)
	}
	if len(res.Data) != 10_000 {
		t.Errorf("data length = %d", len(res.Data))
	}
}

func TestFetchSkipsImplausiblySmallFiles(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./a/call.wav"] = audioBytes(100) // under MinSize
	remote.files["./b/call.wav"] = audioBytes(5_000)

	f := testFetcher(remote)
	res, err := f.Fetch(context.Background(), []string{"./a/call.wav", "./b/call.wav"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Path != "./b/call.wav" {
		t.Errorf("resolved path = %q", res.Path)
	}
}

func TestFetchDetectsPartialTransfer(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./a/call.wav"] = audioBytes(8_000)
	remote.truncate["./a/call.wav"] = 500

	f := testFetcher(remote)
	_, err := f.Fetch(context.Background(), []string{"./a/call.wav"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound wrap, got %v", err)
	}
	if !strings.Contains(err.Error(), "incomplete transfer") {
		t.Errorf("error should carry byte-mismatch diagnostic: %v", err)
	}
}

func TestFetchAbandonsSlowStatAndMovesOn(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./slow/call.wav"] = audioBytes(8_000)
	remote.statSlow["./slow/call.wav"] = time.Second // beyond StatTimeout
	remote.files["./fast/call.wav"] = audioBytes(8_000)

	f := testFetcher(remote)
	res, err := f.Fetch(context.Background(), []string{"./slow/call.wav", "./fast/call.wav"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Path != "./fast/call.wav" {
		t.Errorf("resolved path = %q", res.Path)
	}

	// The slow candidate is abandoned, not retried.
	count := 0
	for _, p := range remote.statCalls {
		if p == "./slow/call.wav" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("slow candidate stat attempts = %d, want 1", count)
	}
}

func TestFetchExhaustionIsNotFound(t *testing.T) {
	f := testFetcher(newFakeRemote())
	_, err := f.Fetch(context.Background(), []string{"./a.wav", "./b.wav"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Descriptive per-candidate failures support operator diagnosis.
	if !strings.Contains(err.Error(), "./a.wav") || !strings.Contains(err.Error(), "./b.wav") {
		t.Errorf("error should list attempted paths: %v", err)
	}
}

func TestDownloadTimeoutScaling(t *testing.T) {
	small := downloadTimeout(1 << 20)
	large := downloadTimeout(50 << 20)
	if large <= small {
		t.Errorf("larger files should get more time: %v vs %v", large, small)
	}
	if got := downloadTimeout(10 << 30); got != downloadMaxTimeout {
		t.Errorf("timeout should cap at %v, got %v", downloadMaxTimeout, got)
	}
}
