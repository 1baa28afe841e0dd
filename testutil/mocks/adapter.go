// MockAdapter is a providers.Adapter test double with builder-style
// configuration: fixed responses, error injection, per-call delay, and
// fail-after-N behavior.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
)

// MockAdapterCall records one Generate invocation.
type MockAdapterCall struct {
	Model    string
	Prompt   string
	Envelope providers.Envelope
}

// MockAdapter implements providers.Adapter for one configurable provider.
type MockAdapter struct {
	mu sync.Mutex

	provider types.Provider
	response string
	err      *types.Error
	delay    time.Duration
	failAfter int
	callCount int
	calls     []MockAdapterCall
	generateFunc func(ctx context.Context, model, prompt string) providers.Envelope
}

// NewMockAdapter creates a MockAdapter for provider, returning "mock
// response" on every call by default.
func NewMockAdapter(provider types.Provider) *MockAdapter {
	return &MockAdapter{provider: provider, response: "mock response"}
}

// WithResponse sets the fixed success text every call returns.
func (a *MockAdapter) WithResponse(text string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.response = text
	return a
}

// WithError makes every call fail with err.
func (a *MockAdapter) WithError(err *types.Error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	return a
}

// WithDelay makes Generate block for d before returning, honoring ctx
// cancellation.
func (a *MockAdapter) WithDelay(d time.Duration) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = d
	return a
}

// WithFailAfter makes the (n+1)th and later calls fail with a generic
// upstream error, regardless of WithResponse/WithError.
func (a *MockAdapter) WithFailAfter(n int) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failAfter = n
	return a
}

// WithGenerateFunc overrides Generate entirely with a custom function.
func (a *MockAdapter) WithGenerateFunc(fn func(ctx context.Context, model, prompt string) providers.Envelope) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generateFunc = fn
	return a
}

// Provider implements providers.Adapter.
func (a *MockAdapter) Provider() types.Provider { return a.provider }

// Generate implements providers.Adapter.
func (a *MockAdapter) Generate(ctx context.Context, model, prompt string) providers.Envelope {
	a.mu.Lock()
	a.callCount++
	count := a.callCount
	delay := a.delay
	fn := a.generateFunc
	failAfter := a.failAfter
	customErr := a.err
	response := a.response
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return a.record(model, prompt, providers.Failure(
				types.NewError(types.ErrTimeout, "context canceled during mock delay").WithProvider(string(a.provider))))
		case <-time.After(delay):
		}
	}

	var envelope providers.Envelope
	switch {
	case fn != nil:
		envelope = fn(ctx, model, prompt)
	case failAfter > 0 && count > failAfter:
		envelope = providers.Failure(types.NewError(types.ErrUpstreamError, "mock adapter: configured to fail after N calls").
			WithProvider(string(a.provider)))
	case customErr != nil:
		envelope = providers.Failure(customErr)
	default:
		envelope = providers.Success(response)
	}

	return a.record(model, prompt, envelope)
}

func (a *MockAdapter) record(model, prompt string, envelope providers.Envelope) providers.Envelope {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, MockAdapterCall{Model: model, Prompt: prompt, Envelope: envelope})
	return envelope
}

// Calls returns a copy of every recorded invocation.
func (a *MockAdapter) Calls() []MockAdapterCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]MockAdapterCall{}, a.calls...)
}

// CallCount returns the number of Generate invocations so far.
func (a *MockAdapter) CallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.callCount
}

// Reset clears call history and counters, preserving configured behavior.
func (a *MockAdapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = nil
	a.callCount = 0
}
