package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Request metrics
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_requests_total",
		Help: "Total number of TTS requests by outcome",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_gateway_request_duration_seconds",
		Help:    "End to end duration of TTS requests in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// Synthesis metrics
	synthesisInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tts_gateway_syntheses_in_flight",
		Help: "Number of syntheses currently holding an inference slot",
	})

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_gateway_synthesis_latency_seconds",
		Help:    "Speech synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	// Encoding metrics
	encodeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tts_gateway_encode_latency_seconds",
		Help:    "Lossless encoding latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tts_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tts_gateway_audio_bytes_total",
		Help: "Total audio bytes returned to clients",
	}, []string{"format"}) // format: "wav" or "flac"
)

// Metrics tracks metrics for a single TTS request
type Metrics struct {
	requestID string
	startTime time.Time
}

// NewRequestMetrics creates a new metrics tracker for a request
func NewRequestMetrics(requestID string) *Metrics {
	return &Metrics{
		requestID: requestID,
		startTime: time.Now(),
	}
}

// RecordRequestEnd records the outcome and duration of the request
func (m *Metrics) RecordRequestEnd(status string) {
	requestsTotal.WithLabelValues(status).Inc()
	requestDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes returned for a format
func (m *Metrics) RecordAudioBytes(format string, bytes int) {
	audioBytesOut.WithLabelValues(format).Add(float64(bytes))
}

// TrackSynthesis marks an inference slot as taken and returns a func that
// releases it and records latency
func TrackSynthesis() func() {
	start := time.Now()
	synthesisInFlight.Inc()
	return func() {
		synthesisInFlight.Dec()
		synthesisLatency.Observe(time.Since(start).Seconds())
	}
}

// ObserveEncode records how long a lossless encode took
func ObserveEncode(d time.Duration) {
	encodeLatency.Observe(d.Seconds())
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
