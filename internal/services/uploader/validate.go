package uploader

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Size ceilings per entry path. The remote path is tighter because downloads
// stage through the temporary-file backend and its storage quota.
const (
	DeviceMaxBytes int64 = 1 << 30
	RemoteMaxBytes int64 = 512 << 20

	maxFilenameLength = 128
)

// supportedFormats is the fixed set of audio extensions the upstream accepts.
var supportedFormats = map[string]bool{
	"aac":  true,
	"aiff": true,
	"aif":  true,
	"flac": true,
	"mp3":  true,
	"m4a":  true,
	"m4b":  true,
	"oga":  true,
	"ogg":  true,
	"opus": true,
	"wav":  true,
	"wma":  true,
}

// Payload is the audio file moving through the pipeline, regardless of which
// entry path produced it.
type Payload struct {
	Bytes     []byte
	Filename  string
	SizeBytes int64
}

// NewPayload builds a Payload whose SizeBytes matches its bytes.
func NewPayload(data []byte, filename string) Payload {
	return Payload{Bytes: data, Filename: filename, SizeBytes: int64(len(data))}
}

// validatePayload returns every violated rule, not just the first, so the
// caller sees the full picture in one round trip.
func validatePayload(p Payload, maxBytes int64) []string {
	var violations []string

	if p.SizeBytes == 0 {
		violations = append(violations, "file payload is empty")
	}
	if p.SizeBytes > maxBytes {
		violations = append(violations, fmt.Sprintf(
			"file size %.2f MB exceeds the %.0f MB limit",
			megabytes(p.SizeBytes), megabytes(maxBytes)))
	}

	if p.Filename == "" {
		violations = append(violations, "filename is empty")
	} else {
		// The ceiling counts characters, not bytes, so multi-byte names
		// are measured the way the user sees them.
		if runes := utf8.RuneCountInString(p.Filename); runes > maxFilenameLength {
			violations = append(violations, fmt.Sprintf(
				"filename is %d characters long, limit is %d", runes, maxFilenameLength))
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p.Filename), "."))
		if !supportedFormats[ext] {
			violations = append(violations, fmt.Sprintf("unsupported audio format %q", ext))
		}
	}

	return violations
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
