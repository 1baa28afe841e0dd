// Package anthropic adapts the Anthropic Messages API to the orchestrator's
// normalized Adapter contract.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ultrai-project/ultrai-core/llm/providers"
	"github.com/ultrai-project/ultrai-core/types"
	"go.uber.org/zap"
)

const (
	defaultBaseURL    = "https://api.anthropic.com/v1"
	anthropicVersion  = "2023-06-01"
	defaultMaxTokens  = 4096
)

// Config configures the Anthropic adapter.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Adapter implements providers.Adapter for Anthropic.
type Adapter struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates an Anthropic adapter.
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = types.DefaultAdapterConfig(types.ProviderAnthropic).RequestTimeout
	}
	return &Adapter{cfg: cfg, client: providers.SharedHTTPClient(timeout), logger: logger}
}

func (a *Adapter) Provider() types.Provider { return types.ProviderAnthropic }

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate performs one Messages API call.
func (a *Adapter) Generate(ctx context.Context, model, prompt string) providers.Envelope {
	if a.cfg.APIKey == "" {
		return providers.Failure(types.NewError(types.ErrAuthentication, "anthropic: no API key configured").
			WithProvider(string(a.Provider())).WithRetryable(false))
	}

	body, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}

	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.Failure(providers.ClassifyTransportError(err, a.Provider()))
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return providers.Failure(providers.MapHTTPError(resp.StatusCode, msg, a.Provider()))
	}

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return providers.Failure(providers.MalformedResponse(a.Provider(), err.Error()))
	}
	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	if text == "" {
		return providers.Failure(providers.MalformedResponse(a.Provider(), "no text content in response"))
	}
	return providers.Success(text)
}
