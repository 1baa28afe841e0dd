// Package providers holds one HTTP adapter per upstream LLM provider. Each
// adapter performs a single completion call and returns a normalized
// Envelope; it never panics and never returns a bare error to its caller.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/ultrai-project/ultrai-core/internal/tlsutil"
	"github.com/ultrai-project/ultrai-core/types"
)

// Envelope is the normalized result of one provider call: exactly one of
// GeneratedText or Err is meaningful.
type Envelope struct {
	GeneratedText string
	Err           *types.Error
}

// OK reports whether the call produced usable text.
func (e Envelope) OK() bool {
	return e.Err == nil
}

// Success builds a successful envelope.
func Success(text string) Envelope {
	return Envelope{GeneratedText: text}
}

// Failure builds a failed envelope.
func Failure(err *types.Error) Envelope {
	return Envelope{Err: err}
}

// Adapter performs one completion call against one provider's API.
type Adapter interface {
	// Provider returns the provider this adapter speaks for.
	Provider() types.Provider

	// Generate runs a single completion call. ctx carries the per-attempt
	// deadline; model is the provider-specific model name; prompt is the
	// verbatim text to send. Generate never returns a Go error — failures
	// are carried in the returned Envelope.
	Generate(ctx context.Context, model, prompt string) Envelope
}

// SharedHTTPClient builds the one *http.Client an adapter holds for its
// lifetime. Connections are pooled over a hardened TLS transport; callers
// set the read/connect deadline per call via the request's context.
func SharedHTTPClient(timeout time.Duration) *http.Client {
	transport := tlsutil.SecureTransport()
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
