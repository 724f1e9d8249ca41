package recordings

import (
	"bytes"
	"fmt"
	"path"
	"strings"
)

// MinAudioBytes is the smallest buffer that can possibly be real call
// audio. Anything smaller is rejected regardless of its header.
const MinAudioBytes = 100

// Verdict is the result of inspecting a downloaded buffer.
type Verdict struct {
	Valid        bool   `json:"valid"`
	DetectedType string `json:"detected_type,omitempty"`
	Reason       string `json:"reason,omitempty"`
	// FromExtension marks a lower-confidence pass where no container
	// signature matched but the filename extension is on the allow-list.
	FromExtension bool `json:"from_extension,omitempty"`
}

// allowedExtensions is the fallback allow-list for files whose headers
// don't match a known signature (truncated recordings, non-standard
// encoders).
var allowedExtensions = map[string]string{
	".wav":  "wav",
	".mp3":  "mp3",
	".flac": "flac",
	".ogg":  "ogg",
	".m4a":  "m4a",
	".mp4":  "mp4",
}

// ValidateAudio inspects the first bytes of buf against known audio
// container signatures before a transcription credit is spent on it.
// filename is used only for the extension fallback.
func ValidateAudio(buf []byte, filename string) Verdict {
	if len(buf) < MinAudioBytes {
		return Verdict{
			Valid:  false,
			Reason: fmt.Sprintf("buffer too small to be audio: %d bytes", len(buf)),
		}
	}

	if kind, ok := sniffContainer(buf); ok {
		return Verdict{Valid: true, DetectedType: kind}
	}

	ext := strings.ToLower(path.Ext(filename))
	if kind, ok := allowedExtensions[ext]; ok {
		return Verdict{
			Valid:         true,
			DetectedType:  kind,
			FromExtension: true,
			Reason:        fmt.Sprintf("no container signature matched; trusting %s extension", ext),
		}
	}

	return Verdict{
		Valid:  false,
		Reason: fmt.Sprintf("unrecognized header % x and extension %q not allowed", buf[:8], ext),
	}
}

// sniffContainer matches known audio container signatures.
func sniffContainer(buf []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(buf, []byte("RIFF")) && len(buf) >= 12 && bytes.Equal(buf[8:12], []byte("WAVE")):
		return "wav", true
	case bytes.HasPrefix(buf, []byte("ID3")):
		return "mp3", true
	// MPEG frame sync: 11 set bits at the start of the stream.
	case len(buf) >= 2 && buf[0] == 0xFF && buf[1]&0xE0 == 0xE0:
		return "mp3", true
	case bytes.HasPrefix(buf, []byte("fLaC")):
		return "flac", true
	case bytes.HasPrefix(buf, []byte("OggS")):
		return "ogg", true
	case len(buf) >= 12 && bytes.Equal(buf[4:8], []byte("ftyp")):
		return "m4a", true
	}
	return "", false
}
