package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV header constants.
const (
	wavHeaderSize = 44
	wavFormatPCM  = 1
)

// ErrNotWAV is returned when bytes do not start with a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// WrapPCMAsWAV wraps little-endian signed PCM samples in a canonical 44-byte
// WAV header.
func WrapPCMAsWAV(pcmData []byte, sampleRate, channels, bitsPerSample int) []byte {
	dataSize := len(pcmData)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	wav := make([]byte, wavHeaderSize+dataSize)

	// RIFF header
	copy(wav[0:4], "RIFF")
	binary.LittleEndian.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	// fmt subchunk
	copy(wav[12:16], "fmt ")
	binary.LittleEndian.PutUint32(wav[16:20], 16)
	binary.LittleEndian.PutUint16(wav[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(wav[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(wav[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(wav[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(wav[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(wav[34:36], uint16(bitsPerSample))

	// data subchunk
	copy(wav[36:40], "data")
	binary.LittleEndian.PutUint32(wav[40:44], uint32(dataSize))
	copy(wav[44:], pcmData)

	return wav
}

// Int16ToPCM encodes samples as 16-bit little-endian PCM.
func Int16ToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// IsWAV reports whether data carries a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// ValidateWAV returns an error unless data looks like a WAV file with a
// non-empty payload.
func ValidateWAV(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if !IsWAV(data) {
		return ErrNotWAV
	}
	if len(data) <= wavHeaderSize {
		return fmt.Errorf("wav has no sample data (%d bytes)", len(data))
	}
	return nil
}
