package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reasoning-chat/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
	maxErrorBody   = 4096
	maxBody        = 4 << 20
)

// chatRequest is the request shape for the Chat Completions endpoint.
// Stream is always sent and always false.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// ProviderError marks the status as coming from the completion backend.
func (e *HTTPStatusError) ProviderError() bool {
	return true
}

// APIMessage returns the provider's own description of the failure, taken
// from the JSON error body when there is one.
func (e *HTTPStatusError) APIMessage() string {
	if msg := errorBodyMessage(e.Body); msg != "" {
		return msg
	}
	if body := strings.TrimSpace(e.Body); body != "" && len(body) <= 200 {
		return fmt.Sprintf("%d %s", e.StatusCode, body)
	}
	if text := http.StatusText(e.StatusCode); text != "" {
		return fmt.Sprintf("%d %s", e.StatusCode, text)
	}
	return fmt.Sprintf("status %d", e.StatusCode)
}

// errorBodyMessage understands {"error":{"message":...}}, {"error":"..."}
// and {"message":"..."}.
func errorBodyMessage(body string) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil && strings.TrimSpace(nested.Message) != "" {
			return strings.TrimSpace(nested.Message)
		}
		var flat string
		if err := json.Unmarshal(payload.Error, &flat); err == nil && strings.TrimSpace(flat) != "" {
			return strings.TrimSpace(flat)
		}
	}
	return strings.TrimSpace(payload.Message)
}

// TransportError is returned when the request never produced an HTTP
// response: refused connections, DNS failures, transport timeouts.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("openai: fetch failed for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TransportFailure marks the error as a connectivity problem for callers that
// classify errors without importing this package.
func (e *TransportError) TransportFailure() bool {
	return true
}

// Client is a focused OpenAI-compatible client for chat completions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	keys       KeySource
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given base URL. The API key is resolved
// through keys on every call; sources that hit a remote store memoize.
func NewClient(baseURL string, keys KeySource, opts ...Option) (*Client, error) {
	if keys == nil {
		return nil, errors.New("openai: key source must not be nil")
	}
	c := &Client{
		baseURL:    strings.TrimSpace(baseURL),
		httpClient: &http.Client{Timeout: defaultTimeout},
		keys:       keys,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// resolvedHTTPClient returns the configured HTTP client, or a default if none
// was set.
func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// Complete sends one non-streaming Chat Completions request. A response with
// no choices is not an error here; interpretation is left to the caller.
func (c *Client) Complete(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error) {
	if strings.TrimSpace(in.Model) == "" {
		return domain.Completion{}, errors.New("openai: model must not be empty")
	}

	apiKey, err := c.keys.APIKey(ctx)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("openai: resolve api key: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       in.Model,
		Messages:    in.Messages,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
		Stream:      false,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	url := chatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return domain.Completion{}, fmt.Errorf("openai: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return domain.Completion{}, err
	}

	var payload domain.Completion
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.Completion{}, fmt.Errorf("openai: decode response: %w", decErr)
	}
	payload.Raw = raw
	return payload, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, &TransportError{URL: url, Err: doErr}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, &TransportError{URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}
	return buf, nil
}
