package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.BatchSize != 4 {
		t.Errorf("default batch size = %d, want 4", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Errorf("default max attempts = %d, want 3", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Recordings.LookbackDays != 7 {
		t.Errorf("default lookback days = %d, want 7", cfg.Recordings.LookbackDays)
	}
	if cfg.Transcriber.SpeakersExpected != 2 {
		t.Errorf("default speakers expected = %d, want 2", cfg.Transcriber.SpeakersExpected)
	}
	if !strings.HasPrefix(cfg.Store.DSN, "${") {
		t.Errorf("default store DSN should be an env reference, got %q", cfg.Store.DSN)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("CALLSIGHT_TEST_SECRET", "s3cret")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain-value", "plain-value"},
		{"${CALLSIGHT_TEST_SECRET}", "s3cret"},
		{"prefix-${CALLSIGHT_TEST_SECRET}-suffix", "prefix-s3cret-suffix"},
		{"${CALLSIGHT_TEST_UNSET_VAR}", ""},
	}

	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("TRANSCRIBER_API_KEY", "tk")
	t.Setenv("OPENAI_API_KEY", "ok")

	cfg := DefaultConfig()
	cfg.CallLog.DSN = "postgres://localhost/calls"
	cfg.Store.DSN = "postgres://localhost/results"
	cfg.SFTP.Host = "records.example.com"
	cfg.SFTP.Password = "pw"

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Store.DSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing store DSN")
	}

	cfg = DefaultConfig()
	cfg.CallLog.DSN = "x"
	cfg.Store.DSN = "y"
	cfg.SFTP.Host = "h"
	cfg.SFTP.Password = ""
	cfg.SFTP.KeyFile = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing sftp credentials")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "transcriber") {
		t.Error("written config missing transcriber section")
	}
	if !strings.Contains(content, "${TRANSCRIBER_API_KEY}") {
		t.Error("written config should reference env vars, not contain secrets")
	}
}
