package audio

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes a shell script standing in for ffmpeg and returns its path
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func testWAV() []byte {
	return WrapPCMAsWAV(Int16ToPCM(sineSamples(2048, 22050, 440)), 22050, 1, 16)
}

func TestFFmpegEncoder_StagesAndCleansUp(t *testing.T) {
	// copies the input after a fake magic so the output is identifiable
	script := fakeFFmpeg(t, `in="$6"
for last; do :; done
printf 'fLaC' > "$last"
cat "$in" >> "$last"
`)

	enc := NewFFmpegEncoder(script, 0)
	enc.tempDir = t.TempDir()

	wav := testWAV()
	out, err := enc.Encode(context.Background(), wav)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("fLaC"), wav...), out)

	entries, err := os.ReadDir(enc.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFFmpegEncoder_FailureCleansUp(t *testing.T) {
	script := fakeFFmpeg(t, "echo 'Invalid data found when processing input' >&2\nexit 1\n")

	enc := NewFFmpegEncoder(script, 0)
	enc.tempDir = t.TempDir()

	_, err := enc.Encode(context.Background(), testWAV())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data found")

	entries, err := os.ReadDir(enc.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFFmpegEncoder_EmptyOutput(t *testing.T) {
	script := fakeFFmpeg(t, "for last; do :; done\n: > \"$last\"\n")

	enc := NewFFmpegEncoder(script, 0)
	enc.tempDir = t.TempDir()

	_, err := enc.Encode(context.Background(), testWAV())
	assert.Error(t, err)
}

func TestFFmpegEncoder_Timeout(t *testing.T) {
	script := fakeFFmpeg(t, "exec sleep 5\n")

	enc := NewFFmpegEncoder(script, 100*time.Millisecond)
	enc.tempDir = t.TempDir()

	_, err := enc.Encode(context.Background(), testWAV())
	assert.ErrorIs(t, err, ErrFFmpegTimeout)

	entries, err := os.ReadDir(enc.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewFFmpegEncoder_Timeout(t *testing.T) {
	assert.Equal(t, DefaultFFmpegTimeout, NewFFmpegEncoder("", 0).timeout)
	assert.Equal(t, DefaultFFmpegTimeout, NewFFmpegEncoder("", -time.Second).timeout)
	assert.Equal(t, 45*time.Second, NewFFmpegEncoder("", 45*time.Second).timeout)
	assert.Equal(t, "ffmpeg", NewFFmpegEncoder("", 0).path)
}

func TestFFmpegEncoder_NotFound(t *testing.T) {
	enc := NewFFmpegEncoder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), 0)

	ok, err := enc.Check(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFFmpegNotFound)

	_, err = enc.Encode(context.Background(), testWAV())
	assert.ErrorIs(t, err, ErrFFmpegNotFound)
}

func TestFFmpegEncoder_RejectsInvalidInput(t *testing.T) {
	enc := NewFFmpegEncoder("ffmpeg", 0)

	_, err := enc.Encode(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestFFmpegEncoder_Real(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	out, err := NewFFmpegEncoder("ffmpeg", 0).Encode(context.Background(), testWAV())
	require.NoError(t, err)

	got, rate, channels, _ := decodeFLAC(t, out)
	assert.Equal(t, uint32(22050), rate)
	assert.Equal(t, 1, channels)
	assert.Len(t, got, 2048)
}
