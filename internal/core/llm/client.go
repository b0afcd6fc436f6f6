package llm

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// Completer is anything that can answer a chat completion request.
// *Registry is the production implementation.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Caller sends classification prompts to a model.
type Caller struct {
	completer Completer
}

// NewCaller creates a Caller backed by completer.
func NewCaller(completer Completer) *Caller {
	return &Caller{completer: completer}
}

// Classify sends the prompt messages once and returns the raw reply. Every
// failure is an ErrCall.
func (c *Caller) Classify(ctx context.Context, model string, messages []Message) (string, error) {
	text, err := c.completer.Complete(ctx, Request{
		Model:       model,
		Messages:    messages,
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrCall, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrCall, apperrors.ErrEmptyResponse)
	}

	return text, nil
}

// CompleteText sends a single user prompt with an optional system prompt.
func (c *Caller) CompleteText(ctx context.Context, model, system, prompt string) (string, error) {
	var messages []Message
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}

	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	text, err := c.completer.Complete(ctx, Request{
		Model:     model,
		Messages:  messages,
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrCall, err)
	}

	return strings.TrimSpace(text), nil
}

// QueryExtractor turns a claim into a short search query.
type QueryExtractor struct {
	completer Completer
}

// NewQueryExtractor creates a QueryExtractor backed by completer.
func NewQueryExtractor(completer Completer) *QueryExtractor {
	return &QueryExtractor{completer: completer}
}

// ExtractQuery returns a search query for text. Empty input and empty replies
// are ErrExtraction.
func (e *QueryExtractor) ExtractQuery(ctx context.Context, model, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtraction, apperrors.ErrInvalidInput)
	}

	reply, err := e.completer.Complete(ctx, Request{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: extractSystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf(extractUserFormat, text)},
		},
		MaxTokens:   extractMaxTokens,
		Temperature: extractTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtraction, err)
	}

	query := strings.Trim(strings.TrimSpace(reply), `"'`)
	if query == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtraction, apperrors.ErrEmptyResponse)
	}

	return query, nil
}
