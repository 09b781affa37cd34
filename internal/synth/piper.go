package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lexiqai/tts-gateway/internal/audio"
	"github.com/lexiqai/tts-gateway/internal/observability"
)

// piperVoiceConfig is the subset of <model>.json the gateway needs
type piperVoiceConfig struct {
	NumSpeakers  int            `json:"num_speakers"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
	Audio        struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
}

// PiperSynthesizer implements Synthesizer by running the piper CLI once per
// request. Text goes in on stdin and the WAV is read back from a temp file.
type PiperSynthesizer struct {
	binary    string
	modelPath string
	useCUDA   bool
	speakers  map[string]int
	tempDir   string // parent for output files, os.TempDir() when empty
}

// NewPiperSynthesizer loads the voice config next to modelPath
func NewPiperSynthesizer(binary, modelPath, device string) (*PiperSynthesizer, error) {
	if binary == "" {
		binary = "piper"
	}

	configPath := modelPath + ".json"
	//nolint:gosec // G304: model path is operator configuration
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read piper voice config: %w", err)
	}

	var voice piperVoiceConfig
	if err := json.Unmarshal(raw, &voice); err != nil {
		return nil, fmt.Errorf("failed to parse piper voice config %s: %w", configPath, err)
	}

	logger := observability.GetLogger()
	logger.Info().
		Str("model", modelPath).
		Int("speakers", len(voice.SpeakerIDMap)).
		Int("sample_rate", voice.Audio.SampleRate).
		Msg("Loaded piper voice config")

	return &PiperSynthesizer{
		binary:    binary,
		modelPath: modelPath,
		useCUDA:   strings.EqualFold(device, "cuda"),
		speakers:  voice.SpeakerIDMap,
	}, nil
}

// Name implements Synthesizer
func (p *PiperSynthesizer) Name() string { return "piper" }

// Check implements Synthesizer
func (p *PiperSynthesizer) Check(ctx context.Context) (bool, error) {
	if _, err := exec.LookPath(p.binary); err != nil {
		return false, fmt.Errorf("piper binary: %w", err)
	}
	if _, err := os.Stat(p.modelPath); err != nil {
		return false, fmt.Errorf("piper model: %w", err)
	}
	return true, nil
}

// speakerIndex maps a label to the model's numeric speaker. Single speaker
// models have no map and ignore the label.
func (p *PiperSynthesizer) speakerIndex(label string) (int, bool, error) {
	if len(p.speakers) == 0 {
		return 0, false, nil
	}
	idx, ok := p.speakers[label]
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownSpeaker, label)
	}
	return idx, true, nil
}

// Synthesize implements Synthesizer
func (p *PiperSynthesizer) Synthesize(ctx context.Context, in Input) (*Audio, error) {
	speaker, multi, err := p.speakerIndex(in.Speaker)
	if err != nil {
		return nil, err
	}

	out, err := os.CreateTemp(p.tempDir, "piper-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer func() {
		if removeErr := os.Remove(outPath); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			logger := observability.GetLogger()
			logger.Warn().Err(removeErr).Str("path", outPath).Msg("Failed to remove temp file")
		}
	}()

	args := []string{
		"--model", p.modelPath,
		"--output_file", outPath,
	}
	if multi {
		args = append(args, "--speaker", strconv.Itoa(speaker))
	}
	if in.Speed > 0 && in.Speed != 1 {
		args = append(args, "--length_scale", strconv.FormatFloat(1/in.Speed, 'f', -1, 64))
	}
	if p.useCUDA {
		args = append(args, "--cuda")
	}

	//nolint:gosec // G204: binary is operator configuration
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdin = strings.NewReader(in.Text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("piper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	//nolint:gosec // G304: outPath is our own temp file
	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read piper output: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if err := audio.ValidateWAV(data); err != nil {
		return nil, fmt.Errorf("piper output: %w", err)
	}

	return &Audio{Data: data, MIMEType: MIMETypeWAV}, nil
}
