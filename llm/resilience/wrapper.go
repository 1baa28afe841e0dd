// Package resilience implements the Resilient Wrapper (RW): per-provider
// timeout, retries with backoff, and a circuit breaker around one Provider
// Adapter. The ordering is fixed: circuit check → attempt → classify →
// breaker update → backoff → retry. Breakers are never updated from a
// synthesized circuit_open result.
package resilience

import (
	"context"
	"time"

	"github.com/ultrai-project/ultrai-core/llm/circuitbreaker"
	"github.com/ultrai-project/ultrai-core/llm/health"
	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/llm/retry"
	"github.com/ultrai-project/ultrai-core/types"
	"go.uber.org/zap"
)

// Wrapper adds reliability to one Adapter.
type Wrapper struct {
	adapter providers.Adapter
	cfg     types.AdapterConfig
	breaker *circuitbreaker.Breaker
	health  *health.Manager
	logger  *zap.Logger
}

// New builds a Wrapper around adapter, using cfg's timeout/retry/backoff
// tuning and breaker for circuit state. health receives Record() calls as
// a side effect of Call; it may be nil in unit tests that only exercise
// the retry/breaker loop.
func New(adapter providers.Adapter, cfg types.AdapterConfig, breaker *circuitbreaker.Breaker, hm *health.Manager, logger *zap.Logger) *Wrapper {
	return &Wrapper{adapter: adapter, cfg: cfg, breaker: breaker, health: hm, logger: logger}
}

// Call runs the RW algorithm and never exceeds deadline's wall-clock
// budget beyond small bookkeeping. It may return a synthetic circuit_open
// envelope without contacting the adapter at all.
func (w *Wrapper) Call(ctx context.Context, model types.ModelID, prompt string, deadline time.Time) providers.Envelope {
	if err := w.breaker.Allow(); err != nil {
		return providers.Failure(types.NewError(types.ErrCircuitOpen, "circuit open for "+string(model.Provider)).
			WithProvider(string(model.Provider)).WithRetryable(false))
	}

	var lastEnvelope providers.Envelope
	maxAttempts := w.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			lastEnvelope = timeoutEnvelope(model.Provider)
			break
		}
		attemptTimeout := w.cfg.RequestTimeout
		if remaining < attemptTimeout {
			attemptTimeout = remaining
		}
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		envelope := w.adapter.Generate(attemptCtx, model.Name, prompt)
		cancel()

		class := classify(envelope)
		w.updateBreaker(class)
		w.recordHealth(model.Provider, class)

		if class == retry.Success {
			return envelope
		}
		lastEnvelope = envelope
		if class == retry.Terminal {
			return envelope
		}

		if attempt == maxAttempts-1 {
			break
		}
		backoff := retry.ComputeBackoff(attempt, w.cfg.BackoffBase, w.cfg.BackoffMax)
		if class == retry.RateLimited {
			backoff = w.cfg.BackoffMax
		}
		if time.Until(deadline) <= backoff {
			lastEnvelope = timeoutEnvelope(model.Provider)
			break
		}
		select {
		case <-ctx.Done():
			return timeoutEnvelope(model.Provider)
		case <-time.After(backoff):
		}
	}

	if lastEnvelope.Err != nil && lastEnvelope.Err.Code == types.ErrRateLimited && w.health != nil {
		w.health.Record(model.Provider, health.OutcomeRateLimited, w.cfg.BackoffMax)
	}
	return lastEnvelope
}

func (w *Wrapper) updateBreaker(class retry.Classification) {
	switch class {
	case retry.Success:
		w.breaker.Success()
	case retry.Transient, retry.RateLimited, retry.Terminal:
		w.breaker.Failure()
	}
}

func (w *Wrapper) recordHealth(p types.Provider, class retry.Classification) {
	if w.health == nil {
		return
	}
	switch class {
	case retry.Success:
		w.health.Record(p, health.OutcomeOK, 0)
	case retry.Transient:
		w.health.Record(p, health.OutcomeTransientFail, 0)
	case retry.Terminal:
		w.health.Record(p, health.OutcomeTerminalFail, 0)
	case retry.RateLimited:
		w.health.Record(p, health.OutcomeRateLimited, w.cfg.BackoffMax)
	}
}

func classify(e providers.Envelope) retry.Classification {
	if e.OK() {
		return retry.Success
	}
	switch e.Err.Code {
	case types.ErrRateLimited, types.ErrRateLimit, types.ErrQuotaExceeded:
		return retry.RateLimited
	case types.ErrTimeout, types.ErrNetwork, types.ErrUpstreamError, types.ErrUpstreamTimeout, types.ErrModelOverloaded:
		return retry.Transient
	case types.ErrAuthentication, types.ErrUnauthorized, types.ErrForbidden,
		types.ErrMalformedResponse, types.ErrModelNotFound, types.ErrInvalidRequest:
		return retry.Terminal
	default:
		return retry.Terminal
	}
}

func timeoutEnvelope(p types.Provider) providers.Envelope {
	return providers.Failure(types.NewError(types.ErrTimeout, "deadline exceeded").
		WithProvider(string(p)).WithRetryable(true))
}
