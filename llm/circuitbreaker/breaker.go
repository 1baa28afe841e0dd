// Package circuitbreaker implements a per-provider circuit breaker: closed,
// open, half-open, with half-open admitting exactly one probe call.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is one of Closed, Open, HalfOpen.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config tunes one breaker. Threshold and ResetTimeout come from the
// provider's AdapterConfig; half-open always admits exactly one
// concurrent probe — that is not configurable.
type Config struct {
	Threshold     int
	ResetTimeout  time.Duration
	OnStateChange func(from, to State)
}

// ErrOpen is returned by Allow when the breaker is open or when a half-open
// probe slot is already taken.
var ErrOpen = errors.New("circuit breaker open")

// Breaker is a single provider's circuit breaker. Zero value is not usable;
// construct with New.
type Breaker struct {
	cfg    Config
	logger *zap.Logger

	mu              sync.Mutex
	state           State
	failureCount    int
	openedAt        time.Time
	halfOpenInFlight bool
}

// New creates a breaker starting in the closed state.
func New(cfg Config, logger *zap.Logger) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &Breaker{cfg: cfg, logger: logger, state: StateClosed}
}

// Allow reports whether a call may proceed now. On open, the breaker
// auto-transitions to half-open once ResetTimeout has elapsed and admits
// the caller as the single half-open probe; concurrent callers beyond that
// one probe receive ErrOpen instead of a second concurrent attempt.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateHalfOpen:
		if b.halfOpenInFlight {
			return ErrOpen
		}
		b.halfOpenInFlight = true
		return nil
	case StateOpen:
		if time.Since(b.openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.halfOpenInFlight = true
		return nil
	default:
		return ErrOpen
	}
}

// Success records a successful call. In half-open, one success closes the
// breaker; in closed, it resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenInFlight = false
		b.failureCount = 0
		b.transition(StateClosed)
	case StateClosed:
		b.failureCount = 0
	}
}

// Failure records a failed call, classified or not: the caller (see
// resilience.Wrapper) calls Failure for every non-success outcome,
// terminal included, so a half-open probe that fails for any reason
// always releases its slot and reopens the breaker. In half-open, one
// failure reopens the breaker; in closed, the breaker opens once
// failureCount reaches Threshold.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.halfOpenInFlight = false
		b.transition(StateOpen)
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.Threshold {
			b.transition(StateOpen)
		}
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.failureCount = 0
	b.halfOpenInFlight = false
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if to == StateOpen {
		b.openedAt = time.Now()
	}
	if from == to {
		return
	}
	if b.logger != nil {
		b.logger.Info("circuit breaker state change", zap.String("from", from.String()), zap.String("to", to.String()))
	}
	if b.cfg.OnStateChange != nil {
		go b.cfg.OnStateChange(from, to)
	}
}

// Manager keys one Breaker per provider, created lazily on first use.
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	newCfg   func(provider string) Config
	logger   *zap.Logger
}

// NewManager creates a Manager. newCfg supplies the per-provider Config
// (threshold/reset-timeout) the first time that provider is seen.
func NewManager(logger *zap.Logger, newCfg func(provider string) Config) *Manager {
	return &Manager{breakers: make(map[string]*Breaker), newCfg: newCfg, logger: logger}
}

// For returns the breaker for a provider, creating it on first access.
func (m *Manager) For(provider string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.breakers[provider]; ok {
		return b
	}
	b := New(m.newCfg(provider), m.logger)
	m.breakers[provider] = b
	return b
}
