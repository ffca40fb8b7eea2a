// Package chatclient talks to the chat server's HTTP API the way the browser
// front end does: one question per request, reasoning split out on the
// client, and model information fetched once per client.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"reasoning-chat/internal/config"
	"reasoning-chat/internal/domain"
	"reasoning-chat/internal/usecase"
)

const (
	defaultTemperature = 0.7
	defaultTimeout     = 2 * time.Minute
)

// Prompt is a system prompt with the token budget used alongside it.
type Prompt struct {
	SystemPrompt string
	MaxTokens    int
}

// Options overrides the client defaults for one call. Zero fields keep the
// default.
type Options struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
}

// StatusError is a non-2xx answer from the chat server.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *StatusError) ProviderError() bool {
	return true
}

type chatRequest struct {
	Messages    []domain.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	regular     Prompt
	reasoning   Prompt
	temperature float64

	infoMu sync.Mutex
	info   *domain.ModelInfo
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRegularPrompt sets the defaults for GenerateChatResponse.
func WithRegularPrompt(p Prompt) Option {
	return func(c *Client) {
		c.regular = mergePrompt(p, c.regular)
	}
}

// WithReasoningPrompt sets the defaults for GenerateChatResponseWithReasoning.
func WithReasoningPrompt(p Prompt) Option {
	return func(c *Client) {
		c.reasoning = mergePrompt(p, c.reasoning)
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("chatclient: base url must not be empty")
	}
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      slog.Default(),
		regular:     Prompt{SystemPrompt: config.DefaultSystemPrompt, MaxTokens: 1000},
		reasoning:   Prompt{SystemPrompt: config.DefaultReasoningSystemPrompt, MaxTokens: 2000},
		temperature: defaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// GenerateChatResponse returns the trimmed answer to a single question.
func (c *Client) GenerateChatResponse(ctx context.Context, userMessage string, opts Options) (string, error) {
	completion, err := c.post(ctx, userMessage, c.regular, opts)
	if err != nil {
		return "", err
	}
	msg, _ := completion.FirstMessage()
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return "", usecase.ErrEmptyResponse
	}
	return content, nil
}

// GenerateChatResponseWithReasoning returns the answer and, when the model
// produced one, its reasoning trace.
func (c *Client) GenerateChatResponseWithReasoning(ctx context.Context, userMessage string, opts Options) (domain.ChatResult, error) {
	completion, err := c.post(ctx, userMessage, c.reasoning, opts)
	if err != nil {
		return domain.ChatResult{}, err
	}
	return usecase.Interpret(completion)
}

// TestConnection reports whether a minimal round trip succeeds.
func (c *Client) TestConnection(ctx context.Context) bool {
	_, err := c.GenerateChatResponse(ctx, "Hello", Options{SystemPrompt: `Reply with just "OK"`, MaxTokens: 10})
	if err != nil {
		c.logger.ErrorContext(ctx, "chat connection test failed", "err", err)
		return false
	}
	return true
}

// ModelInfo fetches the server's model information on first use and returns
// the same value for the lifetime of the client. A failed fetch caches a
// placeholder instead.
func (c *Client) ModelInfo(ctx context.Context) domain.ModelInfo {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()

	if c.info == nil {
		info, err := c.fetchModelInfo(ctx)
		if err != nil {
			c.logger.ErrorContext(ctx, "fetch model info failed", "err", err)
			info = domain.ModelInfo{
				ModelName:   "Unknown",
				Endpoint:    "Not configured",
				Environment: "browser",
			}
		}
		c.info = &info
	}
	return *c.info
}

func (c *Client) fetchModelInfo(ctx context.Context) (domain.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/model-info", nil)
	if err != nil {
		return domain.ModelInfo{}, fmt.Errorf("chatclient: create request: %w", err)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ModelInfo{}, fmt.Errorf("chatclient: Failed to fetch model info: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return domain.ModelInfo{}, fmt.Errorf("chatclient: failed to fetch model info: %s", res.Status)
	}
	var info domain.ModelInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return domain.ModelInfo{}, fmt.Errorf("chatclient: decode model info: %w", err)
	}
	return info, nil
}

func (c *Client) post(ctx context.Context, userMessage string, def Prompt, opts Options) (domain.Completion, error) {
	systemPrompt := opts.SystemPrompt
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = def.SystemPrompt
	}
	resolved := domain.CompletionOptions{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature}.
		WithDefaults(domain.CompletionOptions{MaxTokens: def.MaxTokens, Temperature: c.temperature})

	body, err := json.Marshal(chatRequest{
		Messages:    usecase.BuildMessages(systemPrompt, userMessage),
		MaxTokens:   resolved.MaxTokens,
		Temperature: resolved.Temperature,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("chatclient: marshal request: %w", err)
	}

	url := c.baseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("chatclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("chatclient: Failed to fetch %s: %w", url, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("chatclient: read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return domain.Completion{}, statusError(res.StatusCode, raw)
	}

	var completion domain.Completion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return domain.Completion{}, fmt.Errorf("chatclient: decode response: %w", err)
	}
	completion.Raw = raw
	return completion, nil
}

// statusError prefers the server's {"error": "..."} text.
func statusError(status int, body []byte) *StatusError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return &StatusError{StatusCode: status, Message: payload.Error}
	}
	return &StatusError{
		StatusCode: status,
		Message:    fmt.Sprintf("request failed with status %d: %s", status, http.StatusText(status)),
	}
}

func mergePrompt(p, def Prompt) Prompt {
	if strings.TrimSpace(p.SystemPrompt) == "" {
		p.SystemPrompt = def.SystemPrompt
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = def.MaxTokens
	}
	return p
}
