package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reasoning-chat/internal/config"
	"reasoning-chat/internal/domain"
)

const tracerName = "reasoning-chat/usecase"

// Completer is the completion backend. *openai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, in domain.CompletionRequest) (domain.Completion, error)
}

// ChatService assembles outbound requests, calls the backend once and routes
// the outcome through Interpret or Normalize. It holds no per-call state.
type ChatService struct {
	cfg    *config.Config
	llm    Completer
	logger *slog.Logger
	tracer trace.Tracer
}

func NewChatService(cfg *config.Config, llm Completer, logger *slog.Logger) (*ChatService, error) {
	if cfg == nil {
		return nil, errors.New("usecase: config must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		cfg:    cfg,
		llm:    llm,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Complete sends messages to the backend and returns the completion as
// received, for callers that pass it through. Omitted options take the
// configured server defaults. Every error is a *Error.
func (s *ChatService) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (domain.Completion, error) {
	opts = opts.WithDefaults(s.cfg.Completion)

	ctx, span := s.tracer.Start(ctx, "chat.complete", trace.WithAttributes(
		attribute.String("llm.model", s.cfg.ModelName),
		attribute.Int("llm.max_tokens", opts.MaxTokens),
		attribute.Float64("llm.temperature", opts.Temperature),
		attribute.Int("llm.messages", len(messages)),
	))
	defer span.End()

	s.logger.InfoContext(ctx, "completion request",
		"model", s.cfg.ModelName,
		"endpoint", s.cfg.BaseURL,
		"has_api_key", s.cfg.HasAPIKey(),
		"max_tokens", opts.MaxTokens,
		"temperature", opts.Temperature,
	)

	if err := s.cfg.Validate(); err != nil {
		return domain.Completion{}, s.fail(ctx, span, err)
	}

	completion, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Model:       s.cfg.ModelName,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return domain.Completion{}, s.fail(ctx, span, err)
	}
	return completion, nil
}

// Chat is Complete followed by Interpret.
func (s *ChatService) Chat(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (domain.ChatResult, error) {
	completion, err := s.Complete(ctx, messages, opts)
	if err != nil {
		return domain.ChatResult{}, err
	}
	result, err := Interpret(completion)
	if err != nil {
		if errors.Is(err, ErrEmptyResponse) {
			s.logger.WarnContext(ctx, "completion had no usable content", "model", s.cfg.ModelName)
			return domain.ChatResult{}, newError(ErrorEmptyResponse, http.StatusBadGateway, msgEmptyResponse, err)
		}
		return domain.ChatResult{}, Normalize(err)
	}
	return result, nil
}

// GenerateChatResponse asks a single question under a system prompt. A blank
// system prompt falls back to the default assistant prompt.
func (s *ChatService) GenerateChatResponse(ctx context.Context, userMessage, systemPrompt string, opts domain.CompletionOptions) (domain.ChatResult, error) {
	return s.Chat(ctx, BuildMessages(systemPrompt, userMessage), opts)
}

// ModelInfo reports the configured backend.
func (s *ChatService) ModelInfo() domain.ModelInfo {
	return s.cfg.ModelInfo()
}

func (s *ChatService) fail(ctx context.Context, span trace.Span, err error) *Error {
	n := Normalize(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, n.Message)
	s.logger.ErrorContext(ctx, "completion failed",
		"code", n.Code,
		"status", n.StatusCode,
		"err", err,
	)
	return n
}

// BuildMessages returns the [system, user] prompt for a single question.
func BuildMessages(systemPrompt, userMessage string) []domain.ChatMessage {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemPrompt},
		{Role: domain.RoleUser, Content: userMessage},
	}
}
