package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ultrai-project/ultrai-core/types"
)

// MapHTTPError maps an HTTP status code and body message to the classified
// error taxonomy every adapter returns through its Envelope.
func MapHTTPError(status int, msg string, provider types.Provider) *types.Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrAuthentication, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(false)

	case http.StatusTooManyRequests:
		return types.NewError(types.ErrRateLimited, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)

	case http.StatusRequestTimeout:
		return types.NewError(types.ErrTimeout, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)

	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if containsRateLimitWording(msg) {
			return types.NewError(types.ErrRateLimited, msg).
				WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)
		}
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(false)

	case http.StatusNotFound:
		return types.NewError(types.ErrModelNotFound, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(false)

	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)

	case 529: // some providers signal overload with a non-standard 529
		return types.NewError(types.ErrModelOverloaded, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)

	default:
		if status >= 500 {
			return types.NewError(types.ErrUpstreamError, msg).
				WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(true)
		}
		return types.NewError(types.ErrInvalidRequest, msg).
			WithHTTPStatus(status).WithProvider(string(provider)).WithRetryable(false)
	}
}

// containsRateLimitWording catches providers that signal throttling inside a
// 400-class body instead of a 429 status (quota/credit/limit wording).
func containsRateLimitWording(msg string) bool {
	lower := strings.ToLower(msg)
	for _, needle := range []string{"quota exceeded", "rate limit", "too many requests"} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}

// ClassifyTransportError maps a transport-level failure (the HTTP round
// trip itself failing, as opposed to an HTTP error status) to a network
// or timeout error.
func ClassifyTransportError(err error, provider types.Provider) *types.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.ErrTimeout, err.Error()).
			WithProvider(string(provider)).WithRetryable(true)
	}
	return types.NewError(types.ErrNetwork, err.Error()).
		WithProvider(string(provider)).WithRetryable(true).WithCause(err)
}

// MalformedResponse builds the non-retryable error returned when a
// provider's JSON body can't be parsed or is missing the fields the adapter
// needs to extract generated text.
func MalformedResponse(provider types.Provider, detail string) *types.Error {
	return types.NewError(types.ErrMalformedResponse, detail).
		WithProvider(string(provider)).WithRetryable(false)
}

// ReadErrorMessage extracts a human-readable message from an error response
// body, preferring a nested {"error":{"message":...}} shape and falling
// back to the raw body text.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return string(data)
}

// SafeCloseBody closes an HTTP response body, tolerating nil.
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
