// Command chat asks the chat server a single question from the terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"reasoning-chat/internal/chatclient"
	"reasoning-chat/internal/config"
	"reasoning-chat/internal/usecase"
)

const (
	flagServer     = "server"
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 2 * time.Minute
)

func main() {
	server := flag.String(flagServer, envOr("CHAT_SERVER_URL", defaultServer), "Chat server base URL")
	reasoning := flag.Bool("reasoning", false, "Ask for a reasoning trace alongside the answer")
	system := flag.String("system", "", "System prompt override")
	maxTokens := flag.Int("max-tokens", 0, "Token limit override")
	info := flag.Bool("info", false, "Print model information and exit")
	ping := flag.Bool("ping", false, "Check that the server answers and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR loading configuration: %v\n", err)
		os.Exit(1)
	}

	client, err := chatclient.New(*server,
		chatclient.WithRegularPrompt(chatclient.Prompt{SystemPrompt: cfg.Regular.SystemPrompt, MaxTokens: cfg.Regular.MaxTokens}),
		chatclient.WithReasoningPrompt(chatclient.Prompt{SystemPrompt: cfg.Reasoning.SystemPrompt, MaxTokens: cfg.Reasoning.MaxTokens}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	switch {
	case *info:
		mi := client.ModelInfo(ctx)
		fmt.Printf("model:     %s\nendpoint:  %s\nreasoning: %t\n", mi.ModelName, mi.Endpoint, mi.EnableReasoning)
		return
	case *ping:
		if !client.TestConnection(ctx) {
			fmt.Println("FAIL")
			os.Exit(1)
		}
		fmt.Println("OK")
		return
	}

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		question, err = readAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR reading question: %v\n", err)
			os.Exit(1)
		}
	}
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: chat [flags] <question>")
		os.Exit(2)
	}

	opts := chatclient.Options{SystemPrompt: *system, MaxTokens: *maxTokens}
	if !*reasoning {
		answer, err := client.GenerateChatResponse(ctx, question, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, usecase.DescribeError(err))
			os.Exit(1)
		}
		fmt.Println(answer)
		return
	}

	result, err := client.GenerateChatResponseWithReasoning(ctx, question, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, usecase.DescribeError(err))
		os.Exit(1)
	}
	if result.HasReasoning() {
		fmt.Printf("--- reasoning ---\n%s\n--- answer ---\n", result.Reasoning)
	}
	fmt.Println(result.Content)
}

func readAll(r io.Reader) (string, error) {
	var sb strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), sc.Err()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
