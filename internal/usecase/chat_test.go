package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"reasoning-chat/internal/config"
	"reasoning-chat/internal/domain"
	"reasoning-chat/internal/integrations/openai"
)

type mockLLM struct {
	out       domain.Completion
	err       error
	calls     int
	lastInput domain.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, in domain.CompletionRequest) (domain.Completion, error) {
	m.calls++
	m.lastInput = in
	return m.out, m.err
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:    "http://localhost:8000/v1",
		ModelName:  "test-model",
		APIKey:     "sk-secret-value",
		Completion: domain.CompletionOptions{MaxTokens: 150, Temperature: 0.7},
	}
}

func newTestService(t *testing.T, cfg *config.Config, llm Completer) (*ChatService, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	svc, err := NewChatService(cfg, llm, slog.New(slog.NewJSONHandler(&logs, nil)))
	require.NoError(t, err)
	return svc, &logs
}

func expectChatError(t *testing.T, err error, code ErrorCode, status int) *Error {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, status, usecaseErr.StatusCode)
	return usecaseErr
}

var userHello = []domain.ChatMessage{{Role: domain.RoleUser, Content: "Hello"}}

func TestNewChatService_ValidatesDependencies(t *testing.T) {
	_, err := NewChatService(nil, &mockLLM{}, nil)
	require.Error(t, err)

	_, err = NewChatService(testConfig(), nil, nil)
	require.Error(t, err)

	svc, err := NewChatService(testConfig(), &mockLLM{}, nil)
	require.NoError(t, err)
	require.NotNil(t, svc.logger)
}

func TestComplete_PassesOptionsThrough(t *testing.T) {
	llm := &mockLLM{out: completion("Hello! How can I help you?", "")}
	svc, _ := newTestService(t, testConfig(), llm)

	out, err := svc.Complete(context.Background(), userHello, domain.CompletionOptions{MaxTokens: 100, Temperature: 0.8})
	require.NoError(t, err)
	require.Equal(t, llm.out, out)
	require.Equal(t, domain.CompletionRequest{
		Model:       "test-model",
		Messages:    userHello,
		MaxTokens:   100,
		Temperature: 0.8,
	}, llm.lastInput)
}

func TestComplete_AppliesDefaults(t *testing.T) {
	llm := &mockLLM{out: completion("Default response", "")}
	svc, _ := newTestService(t, testConfig(), llm)

	_, err := svc.Complete(context.Background(), userHello, domain.CompletionOptions{})
	require.NoError(t, err)
	require.Equal(t, 150, llm.lastInput.MaxTokens)
	require.Equal(t, 0.7, llm.lastInput.Temperature)
}

func TestComplete_LogsConfigWithoutKey(t *testing.T) {
	svc, logs := newTestService(t, testConfig(), &mockLLM{out: completion("ok", "")})

	_, err := svc.Complete(context.Background(), userHello, domain.CompletionOptions{})
	require.NoError(t, err)
	require.Contains(t, logs.String(), `"model":"test-model"`)
	require.Contains(t, logs.String(), `"endpoint":"http://localhost:8000/v1"`)
	require.Contains(t, logs.String(), `"has_api_key":true`)
	require.NotContains(t, logs.String(), "sk-secret-value")
}

func TestComplete_ConfigurationErrorsFailFast(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = ""
	llm := &mockLLM{}
	svc, _ := newTestService(t, cfg, llm)

	_, err := svc.Complete(context.Background(), userHello, domain.CompletionOptions{})
	e := expectChatError(t, err, ErrorConfiguration, http.StatusInternalServerError)
	require.Equal(t, "Server configuration error: Missing LLM_API_BASE_URL environment variable", e.Message)
	require.Zero(t, llm.calls)

	cfg = testConfig()
	cfg.ModelName = ""
	svc, _ = newTestService(t, cfg, llm)
	_, err = svc.Complete(context.Background(), userHello, domain.CompletionOptions{})
	e = expectChatError(t, err, ErrorConfiguration, http.StatusInternalServerError)
	require.Contains(t, e.Message, "Missing model name")
	require.Zero(t, llm.calls)
}

func TestComplete_NormalizesBackendErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    ErrorCode
		status  int
		message string
	}{
		{
			name:    "provider rate limit",
			err:     &openai.HTTPStatusError{StatusCode: http.StatusTooManyRequests, Body: `{"error":{"message":"Rate limit exceeded"}}`},
			code:    ErrorProviderAPI,
			status:  http.StatusTooManyRequests,
			message: "API request failed: Rate limit exceeded",
		},
		{
			name:    "server configuration",
			err:     errors.New("Missing LLM_API_BASE_URL"),
			code:    ErrorConfiguration,
			status:  http.StatusInternalServerError,
			message: "Server configuration error: Missing LLM_API_BASE_URL",
		},
		{
			name:    "connection",
			err:     errors.New("fetch failed: connection refused"),
			code:    ErrorConnectivity,
			status:  http.StatusServiceUnavailable,
			message: "Cannot connect to AI model. Please check your configuration.",
		},
		{
			name:    "generic",
			err:     errors.New("Something went wrong"),
			code:    ErrorUnknown,
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService(t, testConfig(), &mockLLM{err: tc.err})

			out, err := svc.Complete(context.Background(), userHello, domain.CompletionOptions{})
			e := expectChatError(t, err, tc.code, tc.status)
			require.Equal(t, tc.message, e.Message)
			require.Empty(t, out.Choices)
		})
	}
}

func TestChat_InterpretsCompletion(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &mockLLM{out: completion("Test response", "Test reasoning")})

	out, err := svc.Chat(context.Background(), userHello, domain.CompletionOptions{})
	require.NoError(t, err)
	require.Equal(t, domain.ChatResult{Content: "Test response", Reasoning: "Test reasoning"}, out)
}

func TestChat_EmptyResponse(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &mockLLM{out: completion("  ", "")})

	_, err := svc.Chat(context.Background(), userHello, domain.CompletionOptions{})
	e := expectChatError(t, err, ErrorEmptyResponse, http.StatusBadGateway)
	require.ErrorIs(t, err, ErrEmptyResponse)
	require.Equal(t, "No response received from the model", e.Message)
}

func TestChat_BackendErrorProducesNoResult(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &mockLLM{err: errors.New("boom")})

	out, err := svc.Chat(context.Background(), userHello, domain.CompletionOptions{})
	require.Error(t, err)
	require.Equal(t, domain.ChatResult{}, out)
}

func TestGenerateChatResponse_BuildsPrompt(t *testing.T) {
	llm := &mockLLM{out: completion("OK", "")}
	svc, _ := newTestService(t, testConfig(), llm)

	out, err := svc.GenerateChatResponse(context.Background(), "Hello", "Reply with just \"OK\"", domain.CompletionOptions{MaxTokens: 10})
	require.NoError(t, err)
	require.Equal(t, "OK", out.Content)
	require.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "Reply with just \"OK\""},
		{Role: domain.RoleUser, Content: "Hello"},
	}, llm.lastInput.Messages)
	require.Equal(t, 10, llm.lastInput.MaxTokens)
}

func TestBuildMessages_DefaultSystemPrompt(t *testing.T) {
	msgs := BuildMessages("  ", "Hi")
	require.Len(t, msgs, 2)
	require.Equal(t, domain.RoleSystem, msgs[0].Role)
	require.Equal(t, config.DefaultSystemPrompt, msgs[0].Content)
	require.Equal(t, "Hi", msgs[1].Content)
}

func TestModelInfo_FromConfig(t *testing.T) {
	svc, _ := newTestService(t, &config.Config{EnableReasoning: true}, &mockLLM{})
	require.Equal(t, domain.ModelInfo{
		ModelName:       "Not configured",
		Endpoint:        "Not configured",
		Environment:     "server",
		EnableReasoning: true,
	}, svc.ModelInfo())
}
