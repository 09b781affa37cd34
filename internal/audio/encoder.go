// Package audio holds the lossless encoding capability and the WAV helpers
// shared by synthesis backends.
package audio

import (
	"context"
	"errors"
	"strings"
)

// Audio MIME type constants.
const (
	MIMETypeWAV  = "audio/wav"
	MIMETypeFLAC = "audio/flac"
)

// Audio format constants, used as metric labels and file extensions.
const (
	FormatWAV  = "wav"
	FormatFLAC = "flac"
)

// ErrEmptyAudio is returned when there is nothing to encode.
var ErrEmptyAudio = errors.New("empty audio data")

// Encoder losslessly compresses a complete WAV file.
type Encoder interface {
	// Encode returns the compressed bytes of wav.
	Encode(ctx context.Context, wav []byte) ([]byte, error)

	// Name identifies the encoder in logs and readiness reports.
	Name() string

	// Check reports whether the encoder can currently run.
	Check(ctx context.Context) (bool, error)
}

// FormatForMIME maps a MIME type to its file extension.
func FormatForMIME(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case MIMETypeFLAC, "audio/x-flac":
		return FormatFLAC
	default:
		return FormatWAV
	}
}
