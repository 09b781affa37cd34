// Package synth turns normalized text into WAV audio through an external
// speech model. The model itself is never loaded in this process.
package synth

import (
	"context"
	"errors"
)

// MIMETypeWAV is the media type every backend produces.
const MIMETypeWAV = "audio/wav"

var (
	// ErrUnknownSpeaker is returned when a backend has no voice for the
	// requested speaker label.
	ErrUnknownSpeaker = errors.New("unknown speaker")

	// ErrUnsupportedSpeed is returned by backends that can only render at
	// natural pace.
	ErrUnsupportedSpeed = errors.New("speed not supported by backend")

	// ErrBusy is returned when no inference slot frees up in time.
	ErrBusy = errors.New("synthesizer busy")

	// ErrEmptyAudio is returned when a backend answers without samples.
	ErrEmptyAudio = errors.New("backend returned empty audio")
)

// Input is a single synthesis call.
type Input struct {
	Text    string  // already normalized
	Speaker string  // backend speaker label, e.g. "p225"
	Speed   float64 // 1.0 is natural pace
}

// Audio is a complete WAV rendering.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Synthesizer defines the interface for a speech model backend
type Synthesizer interface {
	// Synthesize renders text to a WAV payload
	Synthesize(ctx context.Context, in Input) (*Audio, error)

	// Name identifies the backend in logs and metrics
	Name() string

	// Check reports whether the backend can serve requests
	Check(ctx context.Context) (bool, error)
}
