package types

import (
	"strings"
	"time"
)

// Provider is the canonical set of upstream LLM providers the orchestrator
// knows how to address.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderAnthropic    Provider = "anthropic"
	ProviderGoogle       Provider = "google"
	ProviderHuggingFace  Provider = "huggingface"
)

// ModelID names one model of one provider. Two ModelIDs are equal iff both
// fields match.
type ModelID struct {
	Provider Provider
	Name     string
}

func (m ModelID) String() string {
	return m.Name
}

// InferProvider derives a Provider from a model name by prefix. The mapping
// is total: anything unrecognized falls back to huggingface, so every model
// name resolves to exactly one provider.
func InferProvider(name string) Provider {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "gpt"):
		return ProviderOpenAI
	case strings.HasPrefix(lower, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(lower, "gemini"):
		return ProviderGoogle
	default:
		return ProviderHuggingFace
	}
}

// NewModelID builds a ModelID, inferring the provider from the name.
func NewModelID(name string) ModelID {
	return ModelID{Provider: InferProvider(name), Name: name}
}

// ProviderCreds holds the API key for one provider, loaded once at process
// start. An empty Key means the provider has no credentials and is
// permanently unavailable for the process lifetime.
type ProviderCreds struct {
	Provider Provider
	Key      string
}

// AdapterConfig carries the per-provider resilience tuning the Resilient
// Wrapper and circuit breaker use. Defaults below are contractual.
type AdapterConfig struct {
	RequestTimeout     time.Duration
	MaxAttempts        int
	BackoffBase        time.Duration
	BackoffMax         time.Duration
	CBFailureThreshold int
	CBResetAfter       time.Duration
}

// DefaultAdapterConfig returns the contractual per-provider defaults.
func DefaultAdapterConfig(p Provider) AdapterConfig {
	switch p {
	case ProviderOpenAI:
		return AdapterConfig{30000 * time.Millisecond, 3, 250 * time.Millisecond, 5000 * time.Millisecond, 5, 30000 * time.Millisecond}
	case ProviderAnthropic:
		return AdapterConfig{45000 * time.Millisecond, 2, 500 * time.Millisecond, 8000 * time.Millisecond, 3, 30000 * time.Millisecond}
	case ProviderGoogle:
		return AdapterConfig{25000 * time.Millisecond, 4, 250 * time.Millisecond, 5000 * time.Millisecond, 6, 30000 * time.Millisecond}
	case ProviderHuggingFace:
		return AdapterConfig{60000 * time.Millisecond, 2, 500 * time.Millisecond, 10000 * time.Millisecond, 3, 60000 * time.Millisecond}
	default:
		return AdapterConfig{30000 * time.Millisecond, 3, 250 * time.Millisecond, 5000 * time.Millisecond, 5, 30000 * time.Millisecond}
	}
}
