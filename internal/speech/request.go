// Package speech validates synthesis requests and drives them through
// normalization, synthesis and optional lossless compression.
package speech

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultSpeed is the natural speaking pace.
const DefaultSpeed = 1.0

// ErrInvalidArgument matches every InvalidArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError is a caller mistake; Detail is safe to return to clients.
type InvalidArgumentError struct {
	Detail string
}

func (e *InvalidArgumentError) Error() string { return e.Detail }

// Is makes errors.Is(err, ErrInvalidArgument) hold
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// InvalidArgument builds an InvalidArgumentError
func InvalidArgument(format string, args ...any) error {
	return &InvalidArgumentError{Detail: fmt.Sprintf(format, args...)}
}

// SynthesisRequest is one text to speech job
type SynthesisRequest struct {
	Text      string
	SpeakerID int
	Speed     float64
	Compress  bool
}

// NewSynthesisRequest returns a request with default speed and compression
func NewSynthesisRequest(text string, speakerID int) SynthesisRequest {
	return SynthesisRequest{
		Text:      text,
		SpeakerID: speakerID,
		Speed:     DefaultSpeed,
		Compress:  true,
	}
}

// Validate checks the request fields. maxTextLength counts runes; zero
// disables the limit.
func (r SynthesisRequest) Validate(maxTextLength int) error {
	if strings.TrimSpace(r.Text) == "" {
		return InvalidArgument("text required")
	}
	// zero is what an absent form field decodes to
	if r.SpeakerID == 0 {
		return InvalidArgument("speaker_id required")
	}
	if r.SpeakerID < 0 {
		return InvalidArgument("speaker_id must be a positive integer")
	}
	if r.Speed <= 0 || math.IsNaN(r.Speed) || math.IsInf(r.Speed, 0) {
		return InvalidArgument("speed must be a positive number")
	}
	if maxTextLength > 0 {
		if n := utf8.RuneCountInString(r.Text); n > maxTextLength {
			return InvalidArgument("text exceeds %d characters (got %d)", maxTextLength, n)
		}
	}
	return nil
}

// SpeakerLabel maps a numeric id to the VCTK style label the models use
func SpeakerLabel(id int) string {
	return "p" + strconv.Itoa(id)
}
