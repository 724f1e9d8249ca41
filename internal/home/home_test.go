package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefaultsToUserHome(t *testing.T) {
	d, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if filepath.Base(d.Path()) != DefaultDirName {
		t.Errorf("expected default dir name %q, got %q", DefaultDirName, d.Path())
	}
}

func TestEnsureExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "callsight-home")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Exists() {
		t.Fatal("home should not exist yet")
	}
	if err := d.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists: %v", err)
	}
	if !d.Exists() {
		t.Error("home should exist after EnsureExists")
	}
	if _, err := os.Stat(d.AudioCachePath()); err != nil {
		t.Errorf("audio cache dir missing: %v", err)
	}
}

func TestCachedAudioPath(t *testing.T) {
	d, _ := New("/tmp/cs")
	got := d.CachedAudioPath("abc-123", ".wav")
	want := filepath.Join("/tmp/cs", AudioCacheDirName, "abc-123.wav")
	if got != want {
		t.Errorf("CachedAudioPath = %q, want %q", got, want)
	}
}
