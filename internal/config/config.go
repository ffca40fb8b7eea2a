// Package config builds the process configuration once at startup. Values
// come from the environment, optionally overlaid on a config.yaml file.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"reasoning-chat/internal/domain"
)

const (
	keyBaseURL          = "llm_api_base_url"
	keyModelName        = "model_name"
	keyAPIKey           = "openai_api_key"
	keyParamPrefix      = "param_prefix"
	keyEnableReasoning  = "enable_reasoning"
	keyMaxTokens        = "max_tokens"
	keyTemperature      = "temperature"
	keyPromptRegular    = "system_prompt_regular"
	keyPromptReasoning  = "system_prompt_reasoning"
	keyTokensRegular    = "max_tokens_regular"
	keyTokensReasoning  = "max_tokens_reasoning"
	keyListenAddr       = "listen_addr"
	keyOtelExporterURL  = "otel_exporter_url"
	keyHTTPTimeoutInSec = "http_timeout_seconds"

	notConfigured = "Not configured"

	DefaultSystemPrompt          = "You are a helpful AI assistant. Provide concise, friendly responses."
	DefaultReasoningSystemPrompt = "You are a helpful AI assistant. Think through the problem step by step, then provide a clear, concise final answer. Your reasoning will be shown separately from your final response."
)

// Prompt is a system prompt paired with its token budget.
type Prompt struct {
	SystemPrompt string
	MaxTokens    int
}

// Config is the resolved configuration. It is passed by reference into the
// components that need it and never re-read from the environment.
type Config struct {
	BaseURL         string
	ModelName       string
	APIKey          string
	ParamPrefix     string
	EnableReasoning bool

	// Completion holds the server-side defaults applied when a request omits
	// max_tokens or temperature.
	Completion domain.CompletionOptions

	Regular   Prompt
	Reasoning Prompt

	ListenAddr         string
	OtelExporterURL    string
	HTTPTimeoutSeconds int
}

// MissingError reports a mandatory setting that was not provided.
type MissingError struct {
	Setting string
	Msg     string
}

func (e *MissingError) Error() string {
	return e.Msg
}

// Load reads configuration from the environment and an optional config.yaml
// in the working directory or ./config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	v.SetDefault(keyMaxTokens, 150)
	v.SetDefault(keyTemperature, 0.7)
	v.SetDefault(keyPromptRegular, DefaultSystemPrompt)
	v.SetDefault(keyPromptReasoning, DefaultReasoningSystemPrompt)
	v.SetDefault(keyTokensRegular, 1000)
	v.SetDefault(keyTokensReasoning, 2000)
	v.SetDefault(keyListenAddr, ":8080")
	v.SetDefault(keyHTTPTimeoutInSec, 60)

	if err := v.ReadInConfig(); err != nil {
		// env-only configuration is fine
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	return &Config{
		BaseURL:         strings.TrimSpace(v.GetString(keyBaseURL)),
		ModelName:       strings.TrimSpace(v.GetString(keyModelName)),
		APIKey:          strings.TrimSpace(v.GetString(keyAPIKey)),
		ParamPrefix:     strings.TrimRight(strings.TrimSpace(v.GetString(keyParamPrefix)), "/"),
		EnableReasoning: v.GetString(keyEnableReasoning) == "true",
		Completion: domain.CompletionOptions{
			MaxTokens:   v.GetInt(keyMaxTokens),
			Temperature: v.GetFloat64(keyTemperature),
		},
		Regular: Prompt{
			SystemPrompt: v.GetString(keyPromptRegular),
			MaxTokens:    v.GetInt(keyTokensRegular),
		},
		Reasoning: Prompt{
			SystemPrompt: v.GetString(keyPromptReasoning),
			MaxTokens:    v.GetInt(keyTokensReasoning),
		},
		ListenAddr:         v.GetString(keyListenAddr),
		OtelExporterURL:    strings.TrimSpace(v.GetString(keyOtelExporterURL)),
		HTTPTimeoutSeconds: v.GetInt(keyHTTPTimeoutInSec),
	}, nil
}

// Validate reports the first mandatory setting needed for completions that
// is missing. The base URL is checked before the model name.
func (c *Config) Validate() error {
	if c == nil || c.BaseURL == "" {
		return &MissingError{Setting: "LLM_API_BASE_URL", Msg: "Missing LLM_API_BASE_URL environment variable"}
	}
	if c.ModelName == "" {
		return &MissingError{Setting: "MODEL_NAME", Msg: "Missing model name. Please set MODEL_NAME."}
	}
	return nil
}

// HasAPIKey reports whether a key source is configured, either directly or
// through Parameter Store.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != "" || c.ParamPrefix != ""
}

// ModelInfo renders the configuration for the model-info endpoint.
func (c *Config) ModelInfo() domain.ModelInfo {
	return domain.ModelInfo{
		ModelName:       orNotConfigured(c.ModelName),
		Endpoint:        orNotConfigured(c.BaseURL),
		Environment:     "server",
		EnableReasoning: c.EnableReasoning,
	}
}

func orNotConfigured(s string) string {
	if s == "" {
		return notConfigured
	}
	return s
}
