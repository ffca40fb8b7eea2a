package domain

import "encoding/json"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions tunes a single completion call. Zero values mean the
// caller omitted the field and the caller-side default applies.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// WithDefaults fills omitted fields from def.
func (o CompletionOptions) WithDefaults(def CompletionOptions) CompletionOptions {
	if o.MaxTokens == 0 {
		o.MaxTokens = def.MaxTokens
	}
	if o.Temperature == 0 {
		o.Temperature = def.Temperature
	}
	return o
}

// CompletionMessage is the assistant message inside a completion choice.
// ReasoningContent is only populated by backends that return a dedicated
// reasoning field.
type CompletionMessage struct {
	Role             string `json:"role,omitempty"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

type CompletionChoice struct {
	Index        int               `json:"index"`
	Message      CompletionMessage `json:"message"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

// Completion is the provider's Chat Completions response. Raw keeps the
// verbatim body so it can be passed through to callers untouched.
type Completion struct {
	ID      string             `json:"id,omitempty"`
	Object  string             `json:"object,omitempty"`
	Created int64              `json:"created,omitempty"`
	Model   string             `json:"model,omitempty"`
	Choices []CompletionChoice `json:"choices"`

	Raw json.RawMessage `json:"-"`
}

// FirstMessage returns the message of the first choice, if any.
func (c Completion) FirstMessage() (CompletionMessage, bool) {
	if len(c.Choices) == 0 {
		return CompletionMessage{}, false
	}
	return c.Choices[0].Message, true
}

// ChatResult is the user-visible answer with an optional reasoning trace.
type ChatResult struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// HasReasoning reports whether a reasoning trace was extracted.
func (r ChatResult) HasReasoning() bool {
	return r.Reasoning != ""
}

// CompletionRequest is a single non-streaming completion call with options
// already resolved.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}
