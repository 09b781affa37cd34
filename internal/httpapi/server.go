// Package httpapi exposes the speech service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/lexiqai/tts-gateway/internal/observability"
	"github.com/lexiqai/tts-gateway/internal/speech"
)

// DefaultMaxBodyBytes bounds a /tts form body.
const DefaultMaxBodyBytes = 1 << 20

// SpeechService is the part of speech.Service the transport needs
type SpeechService interface {
	Synthesize(ctx context.Context, req speech.SynthesisRequest) (*speech.Artifact, error)
}

// Options configures a Server
type Options struct {
	Device         string
	AllowedOrigins []string
	Checks         map[string]observability.HealthCheckFunc
	EnableMetrics  bool
	MaxBodyBytes   int64
}

// Server routes HTTP requests to the speech service
type Server struct {
	svc     SpeechService
	opts    Options
	mux     *http.ServeMux
	handler http.Handler
}

// NewServer builds the route table and middleware chain
func NewServer(svc SpeechService, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		svc:  svc,
		opts: opts,
		mux:  http.NewServeMux(),
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{requestIDHeader},
	})
	s.handler = withRequestID(withAccessLog(c.Handler(s.mux)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", observability.HealthCheckHandler())
	s.mux.HandleFunc("GET /ready", observability.ReadinessHandler(s.opts.Checks))
	s.mux.HandleFunc("POST /tts", s.handleTTS)

	if s.opts.EnableMetrics {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"device": s.opts.Device})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := observability.GetLogger()
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
