package llm

import (
	"context"
	"strings"
)

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Role tags a chat message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral chat completion request. Zero MaxTokens and
// Temperature leave the provider defaults in place.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Complete sends one chat completion and returns the raw text reply.
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderForModel routes a model name to the provider that serves it.
func ProviderForModel(model string) ProviderName {
	m := strings.ToLower(strings.TrimSpace(model))

	switch {
	case m == llmAPIKeyMock || strings.HasPrefix(m, modelPrefixMock):
		return ProviderMock
	case strings.HasPrefix(m, modelPrefixClaude):
		return ProviderAnthropic
	case strings.HasPrefix(m, modelPrefixGemini):
		return ProviderGoogle
	default:
		return ProviderOpenAI
	}
}

// splitSystem separates system messages from the conversation.
func splitSystem(messages []Message) ([]string, []Message) {
	var (
		system []string
		rest   []Message
	)

	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)

			continue
		}

		rest = append(rest, m)
	}

	return system, rest
}
