package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Synthesis backends
const (
	BackendCoqui = "coqui"
	BackendPiper = "piper"
)

// FLAC encoders
const (
	EncoderNative = "native"
	EncoderFFmpeg = "ffmpeg"
)

// Config holds all configuration for the TTS gateway service
type Config struct {
	// Server configuration
	Port             string `envconfig:"PORT" default:"8080"`
	HTTPWriteTimeout int    `envconfig:"HTTP_WRITE_TIMEOUT" default:"120"` // seconds, must exceed SynthesisTimeout + EncodeTimeout

	// Compute device reported on GET / and forwarded to backends that accept it
	Device string `envconfig:"DEVICE" default:"cpu"` // cpu, cuda

	// Speech synthesis backend
	SynthBackend string `envconfig:"SYNTH_BACKEND" default:"coqui"` // coqui, piper

	// Coqui tts-server configuration
	CoquiServerURL  string `envconfig:"COQUI_SERVER_URL" default:"http://localhost:5002"`
	CoquiLanguageID string `envconfig:"COQUI_LANGUAGE_ID" default:""`
	CoquiStyleWAV   string `envconfig:"COQUI_STYLE_WAV" default:""`

	// Piper configuration
	PiperBinary    string `envconfig:"PIPER_BINARY" default:"piper"`
	PiperModelPath string `envconfig:"PIPER_MODEL_PATH" default:""` // Required when SYNTH_BACKEND=piper

	// Lossless encoder used when compress=true
	Encoder       string `envconfig:"ENCODER" default:"ffmpeg"` // ffmpeg, native
	FFmpegPath    string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	EncodeTimeout int    `envconfig:"ENCODE_TIMEOUT" default:"30"` // seconds per ffmpeg run

	// Request limits
	SynthesisTimeout       int `envconfig:"SYNTHESIS_TIMEOUT" default:"60"`       // seconds
	MaxConcurrentSyntheses int `envconfig:"MAX_CONCURRENT_SYNTHESES" default:"2"` // model inference slots
	MaxTextLength          int `envconfig:"MAX_TEXT_LENGTH" default:"5000"`       // runes, 0 disables

	// Comma separated list of origins allowed by CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*,http://localhost:8000,http://localhost:3000"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Optional gRPC health endpoint, disabled when empty
	GRPCHealthPort string `envconfig:"GRPC_HEALTH_PORT" default:""`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks backend selection and backend specific requirements
func (c *Config) Validate() error {
	c.SynthBackend = strings.ToLower(strings.TrimSpace(c.SynthBackend))
	c.Encoder = strings.ToLower(strings.TrimSpace(c.Encoder))

	switch c.SynthBackend {
	case BackendCoqui:
		if c.CoquiServerURL == "" {
			return fmt.Errorf("COQUI_SERVER_URL is required for the coqui backend")
		}
	case BackendPiper:
		if c.PiperModelPath == "" {
			return fmt.Errorf("PIPER_MODEL_PATH is required for the piper backend")
		}
	default:
		return fmt.Errorf("unknown SYNTH_BACKEND %q (want %s or %s)", c.SynthBackend, BackendCoqui, BackendPiper)
	}

	switch c.Encoder {
	case EncoderNative, EncoderFFmpeg:
	default:
		return fmt.Errorf("unknown ENCODER %q (want %s or %s)", c.Encoder, EncoderNative, EncoderFFmpeg)
	}

	if c.SynthesisTimeout <= 0 {
		return fmt.Errorf("SYNTHESIS_TIMEOUT must be positive")
	}
	if c.MaxConcurrentSyntheses <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_SYNTHESES must be positive")
	}
	if c.EncodeTimeout <= 0 {
		return fmt.Errorf("ENCODE_TIMEOUT must be positive")
	}
	// A request can spend both budgets before its response is written
	if c.HTTPWriteTimeout <= c.SynthesisTimeout+c.EncodeTimeout {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT (%ds) must exceed SYNTHESIS_TIMEOUT (%ds) + ENCODE_TIMEOUT (%ds)",
			c.HTTPWriteTimeout, c.SynthesisTimeout, c.EncodeTimeout)
	}

	return nil
}

// SynthesisTimeoutDuration returns the per request synthesis deadline
func (c *Config) SynthesisTimeoutDuration() time.Duration {
	return time.Duration(c.SynthesisTimeout) * time.Second
}

// EncodeTimeoutDuration bounds a single external encoder run
func (c *Config) EncodeTimeoutDuration() time.Duration {
	return time.Duration(c.EncodeTimeout) * time.Second
}

// CircuitBreakerResetDuration returns the open circuit cool down
func (c *Config) CircuitBreakerResetDuration() time.Duration {
	return time.Duration(c.CircuitBreakerResetTimeout) * time.Second
}
