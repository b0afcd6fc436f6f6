package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppEnvLocal enables human-readable console logging.
const AppEnvLocal = "local"

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Database. The DSN is only required by modes that touch the job store.
	PostgresDSN      string `env:"POSTGRES_DSN"`
	DBMaxConnections int32  `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections int32  `env:"DB_MIN_CONNECTIONS" envDefault:"2"`

	// HTTP surface
	HTTPPort       int    `env:"HTTP_PORT" envDefault:"8080"`
	APIAuthToken   string `env:"API_AUTH_TOKEN"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`

	// LLM providers
	LLMAPIKey           string        `env:"LLM_API_KEY"`
	LLMBaseURL          string        `env:"LLM_BASE_URL"`
	AnthropicAPIKey     string        `env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey        string        `env:"GOOGLE_API_KEY"`
	LLMExtractModel     string        `env:"LLM_EXTRACT_MODEL" envDefault:"gpt-4o"`
	LLMClassifyModel    string        `env:"LLM_CLASSIFY_MODEL" envDefault:"gpt-4o"`
	LLMResearchModel    string        `env:"LLM_RESEARCH_MODEL" envDefault:"gpt-4o"`
	LLMSummaryModel     string        `env:"LLM_SUMMARY_MODEL" envDefault:"gpt-4o"`
	RateLimitRPS        int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
	LLMRequestTimeout   time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"60s"`
	LLMCircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// SearxNG evidence provider
	SearxNGEnabled bool          `env:"SEARXNG_ENABLED" envDefault:"false"`
	SearxNGBaseURL string        `env:"SEARXNG_BASE_URL" envDefault:""`
	SearxNGTimeout time.Duration `env:"SEARXNG_TIMEOUT" envDefault:"15s"`
	SearxNGEngines string        `env:"SEARXNG_ENGINES" envDefault:""`

	// Google News RSS evidence provider
	GoogleNewsRSSEnabled bool   `env:"GOOGLE_NEWS_RSS_ENABLED" envDefault:"true"`
	GoogleNewsRSSURL     string `env:"GOOGLE_NEWS_RSS_URL" envDefault:"https://news.google.com/rss/search"`
	GoogleNewsLocale     string `env:"GOOGLE_NEWS_LOCALE" envDefault:"en-US:US"`

	// Google Fact Check Tools evidence provider
	FactCheckGoogleEnabled    bool   `env:"FACTCHECK_GOOGLE_ENABLED" envDefault:"false"`
	FactCheckGoogleAPIKey     string `env:"FACTCHECK_GOOGLE_API_KEY"`
	FactCheckGoogleRPM        int    `env:"FACTCHECK_GOOGLE_RPM" envDefault:"60"`
	FactCheckGoogleMaxResults int    `env:"FACTCHECK_GOOGLE_MAX_RESULTS" envDefault:"3"`

	// Evidence assembly
	EvidenceMaxResults       int           `env:"EVIDENCE_MAX_RESULTS" envDefault:"5"`
	EvidenceFetchArticles    bool          `env:"EVIDENCE_FETCH_ARTICLES" envDefault:"true"`
	EvidenceMaxContentLength int           `env:"EVIDENCE_MAX_CONTENT_LENGTH" envDefault:"4000"`
	EvidenceSummarize        bool          `env:"EVIDENCE_SUMMARIZE" envDefault:"true"`
	WebFetchTimeout          time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"15s"`

	// Benchmark execution
	BenchMaxWorkers      int    `env:"BENCH_MAX_WORKERS" envDefault:"32"`
	BenchMaxIterations   int    `env:"BENCH_MAX_ITERATIONS" envDefault:"20"`
	BenchRetrievalPolicy string `env:"BENCH_RETRIEVAL_POLICY" envDefault:"strict"`

	// Job queue
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	JobStaleAfter      time.Duration `env:"JOB_STALE_AFTER" envDefault:"2h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == AppEnvLocal
}

// applyAliases honors the variable names used by older deployments when the
// canonical ones are absent.
func applyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("FACTCHECK_GOOGLE_API_KEY") {
		setStringFromEnv("GOOGLE_FACTCHECK_API_KEY", &cfg.FactCheckGoogleAPIKey)
	}

	if !hasEnv("SEARXNG_BASE_URL") {
		setStringFromEnv("SEARXNG_URL", &cfg.SearxNGBaseURL)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}
