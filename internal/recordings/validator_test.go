package recordings

import (
	"bytes"
	"testing"
)

// pad extends a header to a plausible audio buffer size.
func pad(header []byte) []byte {
	buf := make([]byte, 4096)
	copy(buf, header)
	return buf
}

func wavHeader() []byte {
	h := []byte("RIFF????WAVE")
	return pad(h)
}

func TestValidateAudioSignatures(t *testing.T) {
	tests := []struct {
		name     string
		buf      []byte
		filename string
		wantType string
	}{
		{"wav", wavHeader(), "call.wav", "wav"},
		{"mp3 id3", pad([]byte("ID3\x04\x00")), "call.mp3", "mp3"},
		{"mp3 frame sync", pad([]byte{0xFF, 0xFB, 0x90}), "call.mp3", "mp3"},
		{"flac", pad([]byte("fLaC")), "call.flac", "flac"},
		{"ogg", pad([]byte("OggS")), "call.ogg", "ogg"},
		{"m4a", pad([]byte{0, 0, 0, 0x20, 'f', 't', 'y', 'p', 'M', '4', 'A', ' '}), "call.m4a", "m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateAudio(tt.buf, tt.filename)
			if !v.Valid {
				t.Fatalf("expected valid, got reason %q", v.Reason)
			}
			if v.DetectedType != tt.wantType {
				t.Errorf("detected type = %q, want %q", v.DetectedType, tt.wantType)
			}
			if v.FromExtension {
				t.Error("signature match should not be flagged as extension fallback")
			}
		})
	}
}

func TestValidateAudioTooSmall(t *testing.T) {
	// Valid WAV header, but under the minimum size: always rejected.
	small := []byte("RIFF????WAVE")
	v := ValidateAudio(small, "call.wav")
	if v.Valid {
		t.Error("sub-minimum buffer must be rejected regardless of header")
	}
}

func TestValidateAudioExtensionFallback(t *testing.T) {
	garbage := pad(bytes.Repeat([]byte{0x51}, 64))

	v := ValidateAudio(garbage, "call.wav")
	if !v.Valid {
		t.Fatalf("expected extension fallback pass, got %q", v.Reason)
	}
	if !v.FromExtension {
		t.Error("fallback pass should be flagged lower-confidence")
	}
	if v.DetectedType != "wav" {
		t.Errorf("detected type = %q", v.DetectedType)
	}
}

func TestValidateAudioRejectsUnknown(t *testing.T) {
	garbage := pad(bytes.Repeat([]byte{0x51}, 64))
	v := ValidateAudio(garbage, "call.txt")
	if v.Valid {
		t.Error("garbage header with disallowed extension must fail")
	}
	if v.Reason == "" {
		t.Error("rejection should carry a diagnostic reason")
	}
}
