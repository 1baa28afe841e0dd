// Package gemini adapts Google's Gemini generateContent API to the
// orchestrator's normalized Adapter contract.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config configures the Gemini adapter.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Adapter implements providers.Adapter for Google Gemini.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a Gemini adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultAdapterConfig(types.ProviderGoogle).RequestTimeout
	}
	return &Adapter{cfg: cfg, client: providers.SharedHTTPClient(timeout), logger: logger}
}

func (a *Adapter) Provider() types.Provider { return types.ProviderGoogle }

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate performs one generateContent call.
func (a *Adapter) Generate(ctx context.Context, model, prompt string) providers.Envelope {
	if a.cfg.APIKey == "" {
		return providers.Failure(types.NewError(types.ErrAuthentication, "gemini: no API key configured").
			WithProvider(string(a.Provider())).WithRetryable(false))
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(a.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.Failure(providers.ClassifyTransportError(err, a.Provider()))
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return providers.Failure(a.mapError(resp.StatusCode, msg))
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return providers.Failure(providers.MalformedResponse(a.Provider(), "no candidates in response"))
	}
	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if text == "" {
		return providers.Failure(providers.MalformedResponse(a.Provider(), "empty candidate text"))
	}
	return providers.Success(text)
}

// mapError classifies Gemini's error bodies. Gemini surfaces throttling
// both as HTTP 429 and, occasionally, as a 400 carrying quota wording; in
// both cases downstream rate-limit detection keys off the literal
// substring "Quota exceeded (rate limit)", so this adapter guarantees that
// phrase appears in the message whenever the upstream signal means
// throttling, ahead of falling through to the generic HTTP mapping.
func (a *Adapter) mapError(status int, msg string) *types.Error {
	lower := strings.ToLower(msg)
	if status == http.StatusTooManyRequests || strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit") {
		return types.NewError(types.ErrRateLimited, "Quota exceeded (rate limit): "+msg).
			WithHTTPStatus(status).WithProvider(string(a.Provider())).WithRetryable(true)
	}
	return providers.MapHTTPError(status, msg, a.Provider())
}
