// Package openai adapts OpenAI's chat completions API to the orchestrator's
// normalized Adapter contract.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Config configures the OpenAI adapter.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Adapter implements providers.Adapter for OpenAI.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an OpenAI adapter. An empty APIKey means the provider is
// unconfigured; callers are expected to keep it out of the eligible set
// rather than call Generate.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultAdapterConfig(types.ProviderOpenAI).RequestTimeout
	}
	return &Adapter{cfg: cfg, client: providers.SharedHTTPClient(timeout), logger: logger}
}

func (a *Adapter) Provider() types.Provider { return types.ProviderOpenAI }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate performs one chat-completions call. It never returns a bare Go
// error: all failures are classified into the returned Envelope.
func (a *Adapter) Generate(ctx context.Context, model, prompt string) providers.Envelope {
	if a.cfg.APIKey == "" {
		return providers.Failure(types.NewError(types.ErrAuthentication, "openai: no API key configured").
			WithProvider(string(a.Provider())).WithRetryable(false))
	}

	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
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
		return providers.Failure(providers.MapHTTPError(resp.StatusCode, msg, a.Provider()))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	if len(parsed.Choices) == 0 {
		return providers.Failure(providers.MalformedResponse(a.Provider(), "no choices in response"))
	}
	text := parsed.Choices[0].Message.Content
	if text == "" {
		return providers.Failure(providers.MalformedResponse(a.Provider(), fmt.Sprintf("empty content for model %s", model)))
	}
	return providers.Success(text)
}
