package usecase

import (
	"errors"
	"regexp"
	"strings"

	"reasoning-chat/internal/domain"
)

// ReasoningOnlyFallback is the answer used when a model produced only a
// reasoning trace and no sentence could be lifted out of it.
const ReasoningOnlyFallback = "I've thought through your question - please see the reasoning section for details."

// ErrEmptyResponse means the completion carried neither content nor reasoning.
var ErrEmptyResponse = errors.New("usecase: no response received from the model")

var (
	thinkingBlock     = regexp.MustCompile(`(?s)<thinking>(.*?)</thinking>`)
	sentenceTerminals = regexp.MustCompile(`[.!?]+`)
)

// Interpret splits a completion into the visible answer and, when the
// backend supplied one, the reasoning trace. Backends either return a
// dedicated reasoning_content field, inline a <thinking> block in content,
// or return no reasoning at all. Only the first choice is read.
//
// When the reply is nothing but a <thinking> block, content is not left
// empty: like a reasoning-only reply it takes the last sentence of the
// reasoning, or ReasoningOnlyFallback.
func Interpret(c domain.Completion) (domain.ChatResult, error) {
	msg, _ := c.FirstMessage()

	reasoning := strings.TrimSpace(msg.ReasoningContent)
	content := strings.TrimSpace(msg.Content)

	if reasoning != "" {
		if content == "" {
			content = lastSentence(reasoning)
		}
		return domain.ChatResult{Content: content, Reasoning: reasoning}, nil
	}

	if content == "" {
		return domain.ChatResult{}, ErrEmptyResponse
	}

	loc := thinkingBlock.FindStringSubmatchIndex(msg.Content)
	if loc == nil {
		return domain.ChatResult{Content: content}, nil
	}
	answer := strings.TrimSpace(msg.Content[:loc[0]] + msg.Content[loc[1]:])
	reasoning = strings.TrimSpace(msg.Content[loc[2]:loc[3]])
	switch {
	case answer == "" && reasoning == "":
		return domain.ChatResult{}, ErrEmptyResponse
	case answer == "":
		// the whole reply was the thinking block
		answer = lastSentence(reasoning)
	}
	return domain.ChatResult{Content: answer, Reasoning: reasoning}, nil
}

// lastSentence returns the final non-blank fragment of text split on runs of
// sentence terminals, or the fallback when there is none.
func lastSentence(text string) string {
	fragments := sentenceTerminals.Split(text, -1)
	for i := len(fragments) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(fragments[i]); s != "" {
			return s
		}
	}
	return ReasoningOnlyFallback
}
