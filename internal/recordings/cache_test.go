package recordings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCachingFetcherRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./2026/03/10/call.wav"] = audioBytes(5_000)

	dir := t.TempDir()
	cf := NewCachingFetcher(testFetcher(remote), dir, nil)

	res, err := cf.Fetch(context.Background(), []string{"./2026/03/10/call.wav"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Data) != 5_000 {
		t.Fatalf("data length = %d", len(res.Data))
	}

	// The download landed in the cache.
	cached := filepath.Join(dir, "2026", "03", "10", "call.wav")
	if _, err := os.Stat(cached); err != nil {
		t.Fatalf("cache file missing: %v", err)
	}

	// Second fetch is served locally even if the remote file vanishes.
	delete(remote.files, "./2026/03/10/call.wav")
	res, err = cf.Fetch(context.Background(), []string{"./2026/03/10/call.wav"})
	if err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if len(res.Data) != 5_000 {
		t.Errorf("cached data length = %d", len(res.Data))
	}
}

func TestCachingFetcherIgnoresTinyCacheFiles(t *testing.T) {
	remote := newFakeRemote()
	remote.files["./a/call.wav"] = audioBytes(5_000)

	dir := t.TempDir()
	// A truncated leftover from an earlier crash must not satisfy a fetch.
	if err := os.MkdirAll(filepath.Join(dir, "a"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a", "call.wav"), []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}

	cf := NewCachingFetcher(testFetcher(remote), dir, nil)
	res, err := cf.Fetch(context.Background(), []string{"./a/call.wav"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(res.Data) != 5_000 {
		t.Errorf("expected remote download, got %d bytes", len(res.Data))
	}
}
