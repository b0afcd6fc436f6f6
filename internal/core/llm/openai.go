package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/platform/config"
)

// openaiProvider serves OpenAI models and any OpenAI-compatible endpoint
// configured through LLM_BASE_URL.
type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI LLM provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.LLMBaseURL, "/")
	}

	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.LLMAPIKey != "" && p.cfg.LLMAPIKey != llmAPIKeyMock
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrEmptyResponse
	}

	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		p.logger.Debug().
			Str(logKeyModel, req.Model).
			Int("max_tokens", req.MaxTokens).
			Msg("LLM output truncated due to max_tokens limit")
	}

	return resp.Choices[0].Message.Content, nil
}

func openAIRole(r Role) string {
	switch r {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func newRateLimiter(rps int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, rateLimiterBurst)
	}

	return rate.NewLimiter(rate.Limit(float64(rps)), rateLimiterBurst)
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
