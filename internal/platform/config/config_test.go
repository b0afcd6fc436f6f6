package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test environment variable keys.
const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvLLMAPIKey   = "LLM_API_KEY"
	testEnvOpenAIKey   = "OPENAI_API_KEY"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/test"
	testDefaultEnv  = "local"
	testDefaultLLM  = "gpt-4o"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(testEnvPostgresDSN, testPostgresDSN)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testPostgresDSN, cfg.PostgresDSN)
	assert.Equal(t, testDefaultEnv, cfg.AppEnv)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, testDefaultLLM, cfg.LLMExtractModel)
	assert.Equal(t, testDefaultLLM, cfg.LLMClassifyModel)
	assert.Equal(t, testDefaultLLM, cfg.LLMResearchModel)
	assert.Equal(t, testDefaultLLM, cfg.LLMSummaryModel)
	assert.Equal(t, 32, cfg.BenchMaxWorkers)
	assert.Equal(t, "strict", cfg.BenchRetrievalPolicy)
	assert.Equal(t, 5*time.Second, cfg.WorkerPollInterval)
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LLM_CLASSIFY_MODEL", "claude-haiku-4-5")
	t.Setenv("BENCH_MAX_WORKERS", "8")
	t.Setenv("SEARXNG_TIMEOUT", "3s")
	t.Setenv("EVIDENCE_SUMMARIZE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "claude-haiku-4-5", cfg.LLMClassifyModel)
	assert.Equal(t, 8, cfg.BenchMaxWorkers)
	assert.Equal(t, 3*time.Second, cfg.SearxNGTimeout)
	assert.False(t, cfg.EvidenceSummarize)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("BENCH_MAX_WORKERS", "many")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_OpenAIKeyAlias(t *testing.T) {
	t.Setenv(testEnvOpenAIKey, "sk-legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-legacy", cfg.LLMAPIKey)

	t.Setenv(testEnvLLMAPIKey, "sk-canonical")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-canonical", cfg.LLMAPIKey)
}
