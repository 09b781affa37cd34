package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear LOG_LEVEL and backend selection to ensure we get the defaults
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")
	t.Setenv("SYNTH_BACKEND", "")
	os.Unsetenv("SYNTH_BACKEND")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.Device != "cpu" {
		t.Errorf("Expected default Device 'cpu', got '%s'", cfg.Device)
	}

	if cfg.SynthBackend != BackendCoqui {
		t.Errorf("Expected default SynthBackend '%s', got '%s'", BackendCoqui, cfg.SynthBackend)
	}

	if cfg.CoquiServerURL != "http://localhost:5002" {
		t.Errorf("Expected default CoquiServerURL 'http://localhost:5002', got '%s'", cfg.CoquiServerURL)
	}

	if cfg.Encoder != EncoderFFmpeg {
		t.Errorf("Expected default Encoder '%s', got '%s'", EncoderFFmpeg, cfg.Encoder)
	}

	if cfg.SynthesisTimeout != 60 {
		t.Errorf("Expected default SynthesisTimeout 60, got %d", cfg.SynthesisTimeout)
	}

	if cfg.EncodeTimeout != 30 {
		t.Errorf("Expected default EncodeTimeout 30, got %d", cfg.EncodeTimeout)
	}

	if cfg.MaxConcurrentSyntheses != 2 {
		t.Errorf("Expected default MaxConcurrentSyntheses 2, got %d", cfg.MaxConcurrentSyntheses)
	}

	if cfg.MaxTextLength != 5000 {
		t.Errorf("Expected default MaxTextLength 5000, got %d", cfg.MaxTextLength)
	}

	wantOrigins := []string{"*", "http://localhost:8000", "http://localhost:3000"}
	if len(cfg.CORSAllowedOrigins) != len(wantOrigins) {
		t.Fatalf("Expected %d CORS origins, got %v", len(wantOrigins), cfg.CORSAllowedOrigins)
	}
	for i, origin := range wantOrigins {
		if cfg.CORSAllowedOrigins[i] != origin {
			t.Errorf("Expected CORS origin %q at %d, got %q", origin, i, cfg.CORSAllowedOrigins[i])
		}
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.LogPretty {
		t.Error("Expected default LogPretty false, got true")
	}

	if !cfg.MetricsEnabled {
		t.Error("Expected default MetricsEnabled true, got false")
	}

	if cfg.GRPCHealthPort != "" {
		t.Errorf("Expected gRPC health disabled by default, got port '%s'", cfg.GRPCHealthPort)
	}
}

func TestLoad_PiperRequiresModel(t *testing.T) {
	t.Setenv("SYNTH_BACKEND", "piper")
	t.Setenv("PIPER_MODEL_PATH", "")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when PIPER_MODEL_PATH is missing")
	}

	t.Setenv("PIPER_MODEL_PATH", "/models/en_GB-vctk-medium.onnx")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.SynthBackend != BackendPiper {
		t.Errorf("Expected SynthBackend '%s', got '%s'", BackendPiper, cfg.SynthBackend)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("SYNTH_BACKEND", "festival")

	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestLoad_UnknownEncoder(t *testing.T) {
	t.Setenv("ENCODER", "lame")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for unknown encoder")
	}
}

func TestLoad_NormalizesNames(t *testing.T) {
	t.Setenv("SYNTH_BACKEND", " Coqui ")
	t.Setenv("ENCODER", "FFMPEG")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.SynthBackend != BackendCoqui || cfg.Encoder != EncoderFFmpeg {
		t.Errorf("Expected coqui/ffmpeg, got %s/%s", cfg.SynthBackend, cfg.Encoder)
	}
}

func TestLoad_WriteTimeoutMustExceedSynthesis(t *testing.T) {
	t.Setenv("SYNTHESIS_TIMEOUT", "120")
	t.Setenv("HTTP_WRITE_TIMEOUT", "60")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error when write timeout is shorter than synthesis timeout")
	}
}

func TestLoad_WriteTimeoutCoversEncode(t *testing.T) {
	t.Setenv("SYNTHESIS_TIMEOUT", "60")
	t.Setenv("ENCODE_TIMEOUT", "60")
	t.Setenv("HTTP_WRITE_TIMEOUT", "90")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error when write timeout does not cover synthesis and encode timeouts")
	}

	t.Setenv("HTTP_WRITE_TIMEOUT", "121")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}
	if cfg.EncodeTimeoutDuration() != 60*time.Second {
		t.Errorf("Expected encode timeout 60s, got %v", cfg.EncodeTimeoutDuration())
	}
}

func TestLoad_EncodeTimeoutMustBePositive(t *testing.T) {
	t.Setenv("ENCODE_TIMEOUT", "0")

	if _, err := LoadFromEnv(); err == nil {
		t.Error("Expected error for zero ENCODE_TIMEOUT")
	}
}

func TestConfig_ResilienceDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.CircuitBreakerMaxFailures != 5 {
		t.Errorf("Expected default CircuitBreakerMaxFailures 5, got %d", cfg.CircuitBreakerMaxFailures)
	}

	if cfg.CircuitBreakerResetTimeout != 30 {
		t.Errorf("Expected default CircuitBreakerResetTimeout 30, got %d", cfg.CircuitBreakerResetTimeout)
	}

	if cfg.CircuitBreakerResetDuration() != 30*time.Second {
		t.Errorf("Expected reset duration 30s, got %v", cfg.CircuitBreakerResetDuration())
	}

	if cfg.SynthesisTimeoutDuration() != 60*time.Second {
		t.Errorf("Expected synthesis timeout 60s, got %v", cfg.SynthesisTimeoutDuration())
	}
}
