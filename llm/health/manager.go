// Package health implements the Provider Health & Fallback Manager (PHF):
// a process-wide, in-memory view of provider health, filtering, and
// priority-based lead selection. It holds no database handle — health
// state here is mutated only by Resilient Wrapper outcomes and explicit
// probes (§4.3), never recomputed from historical query logs.
package health

import (
	"sort"
	"sync"
	"time"

	"github.com/ultrai-project/ultrai-core/types"
)

// Status is one provider's current health.
type Status int

const (
	StatusHealthy Status = iota
	StatusRateLimited
	StatusUnavailable
)

// Record is the per-provider health state PHF maintains.
type Record struct {
	Status              Status
	RateLimitedUntil    time.Time
	LastError           string
	ConsecutiveFailures int
}

// Outcome is what RW reports back to PHF after one call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTransientFail
	OutcomeTerminalFail
	OutcomeRateLimited
)

// Manager is the process-wide PHF. Safe for concurrent use; one writer per
// provider key is not required by callers since every mutation takes the
// lock, but no suspension ever happens while the lock is held.
type Manager struct {
	mu        sync.RWMutex
	records   map[types.Provider]*Record
	noCreds   map[types.Provider]bool
	minModels int
	required  map[types.Provider]bool
	priority  []types.Provider
}

// Config configures a Manager at construction.
type Config struct {
	MinModels         int
	PriorityOrder     []types.Provider
	RequiredProviders []types.Provider
}

// DefaultPriorityOrder is the recommended lead-selection order.
var DefaultPriorityOrder = []types.Provider{
	types.ProviderAnthropic, types.ProviderGoogle, types.ProviderOpenAI, types.ProviderHuggingFace,
}

// NewManager creates a PHF seeded with which providers have credentials.
// A provider absent from creds (or with an empty key) is permanently
// unavailable for the process lifetime.
func NewManager(cfg Config, creds map[types.Provider]string) *Manager {
	if cfg.MinModels <= 0 {
		cfg.MinModels = 2
	}
	priority := cfg.PriorityOrder
	if len(priority) == 0 {
		priority = DefaultPriorityOrder
	}
	required := make(map[types.Provider]bool, len(cfg.RequiredProviders))
	for _, p := range cfg.RequiredProviders {
		required[p] = true
	}

	m := &Manager{
		records:   make(map[types.Provider]*Record),
		noCreds:   make(map[types.Provider]bool),
		minModels: cfg.MinModels,
		required:  required,
		priority:  priority,
	}
	for p, key := range creds {
		if key == "" {
			m.noCreds[p] = true
			m.records[p] = &Record{Status: StatusUnavailable, LastError: "no API key configured"}
		} else {
			m.records[p] = &Record{Status: StatusHealthy}
		}
	}
	return m
}

func (m *Manager) recordFor(p types.Provider) *Record {
	r, ok := m.records[p]
	if !ok {
		m.noCreds[p] = true
		r = &Record{Status: StatusUnavailable, LastError: "no API key configured"}
		m.records[p] = r
	}
	return r
}

// statusLocked resolves the effective status of a provider, expiring a
// rate-limit window that has already elapsed. Caller must hold m.mu.
func (m *Manager) statusLocked(p types.Provider) Status {
	if m.noCreds[p] {
		return StatusUnavailable
	}
	r := m.recordFor(p)
	if r.Status == StatusRateLimited && time.Now().After(r.RateLimitedUntil) {
		r.Status = StatusHealthy
	}
	return r.Status
}

// Filter removes models whose provider is currently unavailable or inside
// a rate-limit window, preserving input order.
func (m *Manager) Filter(models []types.ModelID) (eligible, excluded []types.ModelID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range models {
		if m.statusLocked(id.Provider) == StatusHealthy {
			eligible = append(eligible, id)
		} else {
			excluded = append(excluded, id)
		}
	}
	return eligible, excluded
}

// Record applies one RW outcome to a provider's health state.
func (m *Manager) Record(p types.Provider, outcome Outcome, retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.recordFor(p)
	if m.noCreds[p] {
		return
	}

	switch outcome {
	case OutcomeOK:
		// Idempotent: recording ok after ok leaves the record in the same
		// healthy, zero-failure state (Testable Property 4).
		r.Status = StatusHealthy
		r.ConsecutiveFailures = 0
		r.LastError = ""
	case OutcomeTransientFail:
		r.ConsecutiveFailures++
	case OutcomeTerminalFail:
		r.ConsecutiveFailures++
	case OutcomeRateLimited:
		until := time.Now().Add(retryAfter)
		// Additive-reset: a new window only ever extends, never shortens.
		if r.Status != StatusRateLimited || until.After(r.RateLimitedUntil) {
			r.RateLimitedUntil = until
		}
		r.Status = StatusRateLimited
		r.ConsecutiveFailures++
	}
}

// MarkUnavailable permanently marks a provider unavailable (used when
// credentials are found invalid at runtime, e.g. repeated auth failures).
func (m *Manager) MarkUnavailable(p types.Provider, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noCreds[p] = true
	r := m.recordFor(p)
	r.Status = StatusUnavailable
	r.LastError = reason
}

// PickLead returns the highest-priority eligible candidate, or false if
// none qualify.
func (m *Manager) PickLead(candidates []types.ModelID, priorityOrder []types.Provider) (types.ModelID, bool) {
	order := priorityOrder
	if len(order) == 0 {
		order = m.priority
	}
	rank := make(map[types.Provider]int, len(order))
	for i, p := range order {
		rank[p] = i
	}

	// Full lock, not RLock: statusLocked can write r.Status when it expires
	// an elapsed rate-limit window.
	m.mu.Lock()
	defer m.mu.Unlock()

	best := -1
	var bestID types.ModelID
	found := false
	for _, id := range candidates {
		if m.statusLocked(id.Provider) != StatusHealthy {
			continue
		}
		r, known := rank[id.Provider]
		if !known {
			r = len(order) // unranked providers sort last
		}
		if !found || r < best {
			best = r
			bestID = id
			found = true
		}
	}
	return bestID, found
}

// Viable reports whether enough distinct eligible providers exist to start
// the pipeline, and whether any configured required providers are present.
func (m *Manager) Viable(models []types.ModelID) bool {
	eligible, _ := m.Filter(models)
	distinct := map[types.Provider]bool{}
	for _, id := range eligible {
		distinct[id.Provider] = true
	}
	if len(distinct) < m.minModels {
		return false
	}
	for required := range m.required {
		if !distinct[required] {
			return false
		}
	}
	return true
}

// MinModels returns the configured minimum distinct-provider requirement.
func (m *Manager) MinModels() int { return m.minModels }

// AvailableProviders returns the providers currently healthy, sorted for
// stable output (used by the /status endpoint and the viability-gate error).
func (m *Manager) AvailableProviders() []types.Provider {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Provider
	for p := range m.records {
		if m.statusLocked(p) == StatusHealthy {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot returns a copy of every known provider's record, for status
// endpoints and tests.
func (m *Manager) Snapshot() map[types.Provider]Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[types.Provider]Record, len(m.records))
	for p := range m.records {
		out[p] = *m.recordFor(p)
	}
	return out
}
