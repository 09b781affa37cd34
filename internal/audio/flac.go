package audio

import (
	"bytes"
	"context"
	"fmt"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// DefaultFLACBlockSize is the number of samples per channel in each frame.
const DefaultFLACBlockSize = 4096

// NativeFLACEncoder encodes WAV to FLAC in-process without touching disk.
// Silent blocks are stored as constant subframes and everything else
// verbatim, so the output is always bit exact.
type NativeFLACEncoder struct {
	blockSize int
}

// NewNativeFLACEncoder creates an in-process FLAC encoder
func NewNativeFLACEncoder() *NativeFLACEncoder {
	return &NativeFLACEncoder{blockSize: DefaultFLACBlockSize}
}

// Name implements Encoder
func (e *NativeFLACEncoder) Name() string { return "native-flac" }

// Check implements Encoder; the native encoder has no external requirements
func (e *NativeFLACEncoder) Check(ctx context.Context) (bool, error) { return true, nil }

// Encode implements Encoder
func (e *NativeFLACEncoder) Encode(ctx context.Context, data []byte) ([]byte, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported wav audio format %d (only integer PCM)", dec.WavAudioFormat)
	}

	nchannels := int(dec.NumChans)
	bps := int(dec.BitDepth)
	if nchannels < 1 || nchannels > 8 {
		return nil, fmt.Errorf("unsupported channel count %d", nchannels)
	}
	switch bps {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bps)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	nsamples := len(buf.Data) / nchannels
	if nsamples == 0 {
		return nil, ErrEmptyAudio
	}

	// The last frame may be shorter; stream info advertises the nominal size.
	blockSize := e.blockSize
	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    dec.SampleRate,
		NChannels:     uint8(nchannels),
		BitsPerSample: uint8(bps),
		NSamples:      uint64(nsamples),
	}

	var out bytes.Buffer
	enc, err := flac.NewEncoder(&out, info)
	if err != nil {
		return nil, fmt.Errorf("create flac encoder: %w", err)
	}

	for num, start := 0, 0; start < nsamples; num, start = num+1, start+blockSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := blockSize
		if start+n > nsamples {
			n = nsamples - start
		}

		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        dec.SampleRate,
				Channels:          frame.Channels(nchannels - 1),
				BitsPerSample:     uint8(bps),
				Num:               uint64(num),
			},
			Subframes: deinterleave(buf, start, n, nchannels, bps),
		}
		if err := enc.WriteFrame(f); err != nil {
			return nil, fmt.Errorf("write flac frame %d: %w", num, err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close flac encoder: %w", err)
	}
	return out.Bytes(), nil
}

// deinterleave splits n frames starting at start into one subframe per
// channel. 8-bit WAV is unsigned and is shifted to signed.
func deinterleave(buf *goaudio.IntBuffer, start, n, nchannels, bps int) []*frame.Subframe {
	subframes := make([]*frame.Subframe, nchannels)
	for ch := 0; ch < nchannels; ch++ {
		samples := make([]int32, n)
		for i := 0; i < n; i++ {
			s := buf.Data[(start+i)*nchannels+ch]
			if bps == 8 {
				s -= 128
			}
			samples[i] = int32(s)
		}

		pred := frame.PredVerbatim
		if isConstant(samples) {
			pred = frame.PredConstant
		}
		subframes[ch] = &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: pred},
			Samples:   samples,
			NSamples:  n,
		}
	}
	return subframes
}

func isConstant(samples []int32) bool {
	for _, s := range samples[1:] {
		if s != samples[0] {
			return false
		}
	}
	return true
}
