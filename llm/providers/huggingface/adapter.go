// Package huggingface adapts the HuggingFace inference API to the
// orchestrator's normalized Adapter contract, following the same shape as
// the openai/anthropic/gemini adapters in this module (one struct, one
// shared *http.Client, provider-specific wire types, shared HTTP-error
// mapping).
package huggingface

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

const defaultBaseURL = "https://api-inference.huggingface.co/models"

// Config configures the HuggingFace adapter.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Adapter implements providers.Adapter for HuggingFace inference.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a HuggingFace adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultAdapterConfig(types.ProviderHuggingFace).RequestTimeout
	}
	return &Adapter{cfg: cfg, client: providers.SharedHTTPClient(timeout), logger: logger}
}

func (a *Adapter) Provider() types.Provider { return types.ProviderHuggingFace }

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// Generate performs one inference call. HuggingFace's text-generation
// endpoint returns a JSON array of `{generated_text}` objects on success.
func (a *Adapter) Generate(ctx context.Context, model, prompt string) providers.Envelope {
	if a.cfg.APIKey == "" {
		return providers.Failure(types.NewError(types.ErrAuthentication, "huggingface: no API key configured").
			WithProvider(string(a.Provider())).WithRetryable(false))
	}

	body, err := json.Marshal(inferenceRequest{Inputs: prompt})
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}

	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(a.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.Failure(providers.ClassifyTransportError(err, a.Provider()))
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return providers.Failure(a.mapError(resp.StatusCode, msg))
	}

	var parsed []generatedText
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	if len(parsed) == 0 || parsed[0].GeneratedText == "" {
		return providers.Failure(providers.MalformedResponse(a.Provider(), "no generated_text in response"))
	}
	return providers.Success(parsed[0].GeneratedText)
}

// mapError additionally recognizes HuggingFace's "rate limit reached" and
// "currently loading" wording (503-with-estimated_time) before falling
// through to the shared HTTP-status mapping.
func (a *Adapter) mapError(status int, msg string) *types.Error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "rate limit") {
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).WithProvider(string(a.Provider())).WithRetryable(true)
	}
	if status == http.StatusServiceUnavailable && strings.Contains(lower, "loading") {
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).WithProvider(string(a.Provider())).WithRetryable(true)
	}
	return providers.MapHTTPError(status, msg, a.Provider())
}
