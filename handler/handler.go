package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"reasoning-chat/internal/domain"
	"reasoning-chat/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	pathChat       = "/api/chat"
	pathChatResult = "/api/chat/result"
	pathModelInfo  = "/api/model-info"
)

// ChatUseCase is the orchestration surface the handler depends on.
// *usecase.ChatService satisfies it.
type ChatUseCase interface {
	Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (domain.Completion, error)
	Chat(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (domain.ChatResult, error)
	ModelInfo() domain.ModelInfo
}

type chatRequest struct {
	Messages    []domain.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Temperature float64              `json:"temperature,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the chat API from API Gateway proxy events.
type Handler struct {
	chat   ChatUseCase
	logger *slog.Logger
}

func NewHandler(chat ChatUseCase, logger *slog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, logger: logger}, nil
}

// Handle routes one API Gateway proxy request. Failures are always reported
// in the response; the returned error is reserved for the Lambda runtime and
// is always nil.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	logger := h.logger.With("correlation_id", corrID)

	path := strings.TrimRight(req.Path, "/")
	var resp events.APIGatewayProxyResponse
	switch {
	case path == pathChat && req.HTTPMethod == http.MethodPost:
		resp = h.handleChat(ctx, logger, req)
	case path == pathChatResult && req.HTTPMethod == http.MethodPost:
		resp = h.handleChatResult(ctx, logger, req)
	case path == pathModelInfo && req.HTTPMethod == http.MethodGet:
		resp = h.handleModelInfo(logger)
	case path == pathChat || path == pathChatResult || path == pathModelInfo:
		resp = jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: "Not found"})
	}

	resp.Headers[correlationHeader] = corrID
	return resp, nil
}

func (h *Handler) handleChat(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	in, ok := decodeChatRequest(logger, req)
	if !ok {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	completion, err := h.chat.Complete(ctx, in.Messages, in.options())
	if err != nil {
		return h.errorResponse(logger, err)
	}

	body := string(completion.Raw)
	if body == "" {
		buf, err := json.Marshal(completion)
		if err != nil {
			return h.errorResponse(logger, err)
		}
		body = string(buf)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func (h *Handler) handleChatResult(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	in, ok := decodeChatRequest(logger, req)
	if !ok {
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	result, err := h.chat.Chat(ctx, in.Messages, in.options())
	if err != nil {
		return h.errorResponse(logger, err)
	}
	return jsonResponse(http.StatusOK, result)
}

func (h *Handler) handleModelInfo(logger *slog.Logger) events.APIGatewayProxyResponse {
	info := h.chat.ModelInfo()
	logger.Info("model info requested",
		"model_name", info.ModelName,
		"endpoint", info.Endpoint,
		"enable_reasoning", info.EnableReasoning,
	)
	resp := jsonResponse(http.StatusOK, info)
	resp.Headers["Cache-Control"] = "no-store"
	return resp
}

func (h *Handler) errorResponse(logger *slog.Logger, err error) events.APIGatewayProxyResponse {
	n := usecase.Normalize(err)
	logger.Error("chat request failed", "code", n.Code, "status", n.StatusCode, "err", err)
	return jsonResponse(n.StatusCode, errorResponse{Error: n.Message})
}

func (r chatRequest) options() domain.CompletionOptions {
	return domain.CompletionOptions{MaxTokens: r.MaxTokens, Temperature: r.Temperature}
}

func decodeChatRequest(logger *slog.Logger, req events.APIGatewayProxyRequest) (chatRequest, bool) {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			logger.Warn("invalid base64 body", "err", err)
			return chatRequest{}, false
		}
		body = string(raw)
	}

	var in chatRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		logger.Warn("invalid request body", "err", err)
		return chatRequest{}, false
	}
	return in, true
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"Internal server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(buf),
	}
}

// correlationID returns the caller's correlation id, matching the header
// name case-insensitively, or a fresh one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return newUUID()
}

var newUUID = func() string {
	return uuid.NewString()
}
