package speech

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/lexiqai/tts-gateway/internal/audio"
	"github.com/lexiqai/tts-gateway/internal/observability"
	"github.com/lexiqai/tts-gateway/internal/synth"
	"github.com/lexiqai/tts-gateway/internal/textnorm"
)

var (
	// ErrSynthesis wraps failures of the speech backend.
	ErrSynthesis = errors.New("synthesis failed")

	// ErrEncoding wraps failures of the lossless encoder.
	ErrEncoding = errors.New("encoding failed")
)

// Artifact is the audio returned for one request
type Artifact struct {
	Data      []byte
	MediaType string
}

// Service turns SynthesisRequests into audio
type Service struct {
	synth         synth.Synthesizer
	encoder       audio.Encoder
	maxTextLength int
}

// NewService creates a synthesis service
func NewService(s synth.Synthesizer, enc audio.Encoder, maxTextLength int) *Service {
	return &Service{
		synth:         s,
		encoder:       enc,
		maxTextLength: maxTextLength,
	}
}

// Synthesize validates req, normalizes its text, synthesizes speech and
// compresses it to FLAC when requested
func (s *Service) Synthesize(ctx context.Context, req SynthesisRequest) (*Artifact, error) {
	if err := req.Validate(s.maxTextLength); err != nil {
		return nil, err
	}

	text := textnorm.Normalize(req.Text)
	if text == "" {
		return nil, InvalidArgument("text required")
	}

	logger := observability.LoggerFromContext(ctx)
	logger.Debug().
		Int("text_runes", utf8.RuneCountInString(req.Text)).
		Int("normalized_runes", utf8.RuneCountInString(text)).
		Int("speaker_id", req.SpeakerID).
		Float64("speed", req.Speed).
		Bool("compress", req.Compress).
		Msg("Synthesizing")

	rendered, err := s.synth.Synthesize(ctx, synth.Input{
		Text:    text,
		Speaker: SpeakerLabel(req.SpeakerID),
		Speed:   req.Speed,
	})
	if err != nil {
		if errors.Is(err, synth.ErrUnknownSpeaker) {
			return nil, InvalidArgument("unknown speaker_id %d", req.SpeakerID)
		}
		if errors.Is(err, synth.ErrUnsupportedSpeed) {
			return nil, InvalidArgument("speed is not supported by the %s backend; use 1.0", s.synth.Name())
		}
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
	}

	if audio.FormatForMIME(rendered.MIMEType) != audio.FormatWAV {
		return nil, fmt.Errorf("%w: %s returned %s, want WAV", ErrSynthesis, s.synth.Name(), rendered.MIMEType)
	}

	if !req.Compress {
		return &Artifact{Data: rendered.Data, MediaType: audio.MIMETypeWAV}, nil
	}

	start := time.Now()
	flac, err := s.encoder.Encode(ctx, rendered.Data)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncoding, s.encoder.Name(), err)
	}
	observability.ObserveEncode(elapsed)

	logger.Debug().
		Str("encoder", s.encoder.Name()).
		Int("wav_bytes", len(rendered.Data)).
		Int("flac_bytes", len(flac)).
		Dur("elapsed", elapsed).
		Msg("Encoded FLAC")

	return &Artifact{Data: flac, MediaType: audio.MIMETypeFLAC}, nil
}
