package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/lexiqai/tts-gateway/internal/observability"
	"github.com/lexiqai/tts-gateway/internal/resilience"
)

// Guarded wraps a Synthesizer with bounded concurrency, a per call deadline
// and a circuit breaker. The deadline covers both the wait for a slot and the
// backend call.
type Guarded struct {
	next    Synthesizer
	sem     *semaphore.Weighted
	breaker *resilience.CircuitBreaker
	timeout time.Duration
}

// NewGuarded creates a guarded synthesizer
func NewGuarded(next Synthesizer, maxConcurrent int, timeout time.Duration, breaker *resilience.CircuitBreaker) *Guarded {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(to))
		_, requests, failures, failureRate := breaker.GetStats()
		logger := observability.GetLogger()
		logger.Warn().
			Str("service", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Int64("requests", requests).
			Int64("failures", failures).
			Float64("failure_rate_pct", failureRate).
			Msg("Circuit breaker state changed")
	})
	observability.UpdateCircuitBreakerState(breaker.Name(), int(breaker.GetState()))

	return &Guarded{
		next:    next,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		breaker: breaker,
		timeout: timeout,
	}
}

// Name implements Synthesizer
func (g *Guarded) Name() string { return g.next.Name() }

// Check implements Synthesizer. An open circuit reports not ready.
func (g *Guarded) Check(ctx context.Context) (bool, error) {
	if g.breaker.GetState() == resilience.StateOpen {
		return false, resilience.ErrCircuitOpen
	}
	return g.next.Check(ctx)
}

// Synthesize implements Synthesizer
func (g *Guarded) Synthesize(ctx context.Context, in Input) (*Audio, error) {
	runCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	if err := g.sem.Acquire(runCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: no inference slot within %s", ErrBusy, g.timeout)
	}
	defer g.sem.Release(1)

	logger := observability.LoggerFromContext(ctx)

	var (
		result   *Audio
		synthErr error
	)
	start := time.Now()
	err := g.breaker.CallWithFilter(func() error {
		done := observability.TrackSynthesis()
		defer done()

		result, synthErr = g.next.Synthesize(runCtx, in)
		if synthErr == nil && (result == nil || len(result.Data) == 0) {
			synthErr = ErrEmptyAudio
		}
		return synthErr
	}, func(err error) bool {
		if !g.isBackendFailure(ctx, err) {
			return false
		}
		observability.IncrementCircuitBreakerFailures(g.breaker.Name())
		return true
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, fmt.Errorf("%s: %w", g.next.Name(), err)
	}

	if synthErr != nil {
		if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			synthErr = fmt.Errorf("%s synthesis exceeded %s: %w", g.next.Name(), g.timeout, context.DeadlineExceeded)
		}
		logger.Error().
			Err(synthErr).
			Str("backend", g.next.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("Synthesis failed")
		return nil, synthErr
	}

	logger.Debug().
		Str("backend", g.next.Name()).
		Int("bytes", len(result.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("Synthesis complete")

	return result, nil
}

// isBackendFailure reports whether err should count against the breaker.
// Requests the backend cannot serve by design and callers that went away say
// nothing about backend health.
func (g *Guarded) isBackendFailure(ctx context.Context, err error) bool {
	if errors.Is(err, ErrUnknownSpeaker) || errors.Is(err, ErrUnsupportedSpeed) {
		return false
	}
	return ctx.Err() == nil
}
