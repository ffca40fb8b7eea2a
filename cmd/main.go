package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"reasoning-chat/internal/bootstrap"
	"reasoning-chat/internal/config"
	"reasoning-chat/internal/observability"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	// ---- Tracing ----
	shutdown, err := observability.Setup(ctx, cfg.OtelExporterURL, "reasoning-chat")
	if err != nil {
		slog.Error("failed to set up tracing", "err", err)
		os.Exit(1)
	}
	defer func() { _ = shutdown(ctx) }()

	// ---- Handler ----
	h, err := bootstrap.NewHandler(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}
