package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/lexiqai/tts-gateway/internal/observability"
)

// FFmpeg error types.
var (
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	ErrFFmpegTimeout  = errors.New("ffmpeg execution timed out")
)

const (
	// DefaultFFmpegTimeout bounds a single encode when no timeout is given.
	DefaultFFmpegTimeout = 30 * time.Second
	tempFilePermissions  = 0o600
)

// FFmpegEncoder encodes WAV to FLAC by running ffmpeg over files staged in a
// private temp directory. The directory is removed on every return path.
type FFmpegEncoder struct {
	path    string
	timeout time.Duration
	tempDir string // parent for staging dirs, os.TempDir() when empty
}

// NewFFmpegEncoder creates an ffmpeg backed FLAC encoder. Each run is
// killed after timeout, DefaultFFmpegTimeout when timeout is not positive.
func NewFFmpegEncoder(path string, timeout time.Duration) *FFmpegEncoder {
	if path == "" {
		path = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultFFmpegTimeout
	}
	return &FFmpegEncoder{
		path:    path,
		timeout: timeout,
	}
}

// Name implements Encoder
func (e *FFmpegEncoder) Name() string { return "ffmpeg-flac" }

// Check implements Encoder by resolving the ffmpeg binary
func (e *FFmpegEncoder) Check(ctx context.Context) (bool, error) {
	if _, err := exec.LookPath(e.path); err != nil {
		return false, fmt.Errorf("%w: %s", ErrFFmpegNotFound, e.path)
	}
	return true, nil
}

// Encode implements Encoder
func (e *FFmpegEncoder) Encode(ctx context.Context, wav []byte) ([]byte, error) {
	if err := ValidateWAV(wav); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(e.tempDir, "tts-flac-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			logger := observability.GetLogger()
			logger.Warn().Err(removeErr).Str("path", dir).Msg("Failed to remove temp directory")
		}
	}()

	inputPath := filepath.Join(dir, "input."+FormatWAV)
	outputPath := filepath.Join(dir, "output."+FormatFLAC)

	if err := os.WriteFile(inputPath, wav, tempFilePermissions); err != nil {
		return nil, fmt.Errorf("failed to write input file: %w", err)
	}

	if err := e.run(ctx, buildFFmpegArgs(inputPath, outputPath)); err != nil {
		return nil, err
	}

	//nolint:gosec // G304: outputPath is inside our own temp directory
	out, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced empty output")
	}
	return out, nil
}

// buildFFmpegArgs constructs ffmpeg arguments for a lossless FLAC encode
func buildFFmpegArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "flac",
		"-compression_level", "5",
		outputPath,
	}
}

// run executes ffmpeg with a timeout
func (e *FFmpegEncoder) run(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	//nolint:gosec // G204: path is operator configuration
	cmd := exec.CommandContext(runCtx, e.path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger := observability.GetLogger()
	logger.Debug().Strs("args", args).Msg("Running ffmpeg")

	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrFFmpegTimeout
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFFmpegNotFound, e.path)
		}
		return fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	return nil
}
