package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexiqai/tts-gateway/internal/audio"
	"github.com/lexiqai/tts-gateway/internal/config"
	"github.com/lexiqai/tts-gateway/internal/httpapi"
	"github.com/lexiqai/tts-gateway/internal/observability"
	"github.com/lexiqai/tts-gateway/internal/resilience"
	"github.com/lexiqai/tts-gateway/internal/speech"
	"github.com/lexiqai/tts-gateway/internal/synth"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("device", cfg.Device).
		Str("backend", cfg.SynthBackend).
		Str("encoder", cfg.Encoder).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("TTS Gateway starting")

	backend, err := newSynthesizer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create synthesis backend")
	}
	encoder := newEncoder(cfg)

	breaker := resilience.NewCircuitBreaker(backend.Name(), cfg.CircuitBreakerMaxFailures, cfg.CircuitBreakerResetDuration())
	guarded := synth.NewGuarded(backend, cfg.MaxConcurrentSyntheses, cfg.SynthesisTimeoutDuration(), breaker)
	svc := speech.NewService(guarded, encoder, cfg.MaxTextLength)

	checks := map[string]observability.HealthCheckFunc{
		"synthesizer": guarded.Check,
		"encoder":     encoder.Check,
	}

	api := httpapi.NewServer(svc, httpapi.Options{
		Device:         cfg.Device,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Checks:         checks,
		EnableMetrics:  cfg.MetricsEnabled,
	})

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPWriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Optional gRPC health endpoint
	var grpcHealth *observability.GRPCHealthServer
	if cfg.GRPCHealthPort != "" {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCHealthPort))
		if err != nil {
			logger.Fatal().Err(err).Str("port", cfg.GRPCHealthPort).Msg("Failed to listen for gRPC health")
		}
		grpcHealth = observability.NewGRPCHealthServer(checks, 10*time.Second)
		go func() {
			logger.Info().Str("port", cfg.GRPCHealthPort).Msg("gRPC health server listening")
			if err := grpcHealth.Serve(ctx, lis); err != nil {
				logger.Error().Err(err).Msg("gRPC health server stopped")
			}
		}()
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/tts", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	stop()
	if grpcHealth != nil {
		grpcHealth.Stop()
	}

	// In-flight syntheses may take up to the synthesis timeout to drain
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SynthesisTimeoutDuration()+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

func newSynthesizer(cfg *config.Config) (synth.Synthesizer, error) {
	switch cfg.SynthBackend {
	case config.BackendPiper:
		return synth.NewPiperSynthesizer(cfg.PiperBinary, cfg.PiperModelPath, cfg.Device)
	case config.BackendCoqui:
		return synth.NewCoquiClient(cfg.CoquiServerURL,
			synth.WithLanguageID(cfg.CoquiLanguageID),
			synth.WithStyleWAV(cfg.CoquiStyleWAV),
		), nil
	}
	return nil, fmt.Errorf("unknown synthesis backend %q", cfg.SynthBackend)
}

func newEncoder(cfg *config.Config) audio.Encoder {
	if cfg.Encoder == config.EncoderNative {
		return audio.NewNativeFLACEncoder()
	}
	return audio.NewFFmpegEncoder(cfg.FFmpegPath, cfg.EncodeTimeoutDuration())
}
