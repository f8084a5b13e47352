// Package openai adapts OpenAI-compatible HTTP APIs (OpenAI, Nebius, vLLM) to the
// embedding and answer synthesis contracts.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ClientConfig holds connection settings shared by the embedder and the synthesizer.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds one API round-trip; 0 leaves the client default.
	Timeout time.Duration
}

func newClient(cfg ClientConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// apiError extracts a human-readable error from the API response and wraps it with sentinel,
// so callers can map it with errors.Is.
func apiError(kind string, err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	return fmt.Errorf("%s request failed: %w: %w", kind, sentinel, err)
}

// errorType classifies an API failure for the error_type metric label.
func errorType(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return "rate_limited"
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return "server_error"
		}
		return "api_error"
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return "request_error"
	}
	return "transport"
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
