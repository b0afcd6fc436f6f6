package llm

import "time"

// Error message templates
const (
	errRateLimiter           = "rate limiter error: %w"
	errOpenAIChatCompletion  = "openai chat completion error: %w"
	errAnthropicCompletion   = "anthropic completion: %w"
	errGoogleGenAICompletion = "google genai completion: %w"
	errProviderUnavailable   = "%w: provider %s is not configured"
)

// Model mapping strings
const (
	modelPrefixClaude = "claude"
	modelPrefixGemini = "gemini"
	modelPrefixMock   = "mock-"
	llmAPIKeyMock     = "mock"
)

// Log key strings
const (
	logKeyProvider = "provider"
	logKeyModel    = "model"
	logKeyDuration = "duration"
)

// Rate limiter and circuit breaker defaults.
const (
	rateLimiterBurst          = 5
	defaultCircuitThreshold   = 5
	defaultCircuitResetAfter  = time.Minute
	defaultRequestTimeout     = 60 * time.Second
	anthropicMaxTokensDefault = 1024
)

// Query extraction settings.
const (
	extractMaxTokens    = 20
	extractTemperature  = 0.3
	extractSystemPrompt = "You are a tweet-to-search-query converter."
	extractUserFormat   = "Identify the key entities and any numeric facts in the text below, drop filler, opinion, hashtags and punctuation, and combine the essentials into one space-separated news search query. Return only the query: \"%s\""
)

// Summarization settings.
const (
	summaryMaxTokens = 512

	classifyMaxTokens   = 500
	classifyTemperature = 0.3
)
