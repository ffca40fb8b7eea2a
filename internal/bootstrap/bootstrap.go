// Package bootstrap wires the chat service from a loaded configuration. It is
// shared by the Lambda entry point and the local HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"reasoning-chat/handler"
	"reasoning-chat/internal/config"
	"reasoning-chat/internal/integrations/openai"
	"reasoning-chat/internal/integrations/paramstore"
	"reasoning-chat/internal/usecase"
)

// KeySource picks where the backend API key comes from. With a parameter
// prefix the key is read from SSM Parameter Store on first use; otherwise
// the configured key, possibly empty, is sent as is.
func KeySource(ctx context.Context, cfg *config.Config) (openai.KeySource, error) {
	if cfg.ParamPrefix == "" {
		return openai.StaticKey(cfg.APIKey), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load AWS config: %w", err)
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create SSM client: %w", err)
	}
	keys, err := openai.NewParamStoreKey(ssmClient, cfg.ParamPrefix)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create key source: %w", err)
	}
	return keys, nil
}

// NewHandler builds the request handler. An incomplete configuration is
// logged but not fatal: model info stays available and chat requests report
// the missing setting.
func NewHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*handler.Handler, error) {
	if err := cfg.Validate(); err != nil {
		logger.Warn("chat backend is not fully configured", "err", err)
	}

	keys, err := KeySource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	llm, err := openai.NewClient(cfg.BaseURL, keys, openai.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create completion client: %w", err)
	}

	chat, err := usecase.NewChatService(cfg, llm, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create chat service: %w", err)
	}

	logger.Info("chat backend configured",
		"model", cfg.ModelName,
		"endpoint", cfg.BaseURL,
		"has_api_key", cfg.HasAPIKey(),
		"enable_reasoning", cfg.EnableReasoning,
	)
	return handler.NewHandler(chat, logger)
}
