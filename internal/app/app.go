// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Server mode: HTTP API for submitting and inspecting benchmarks
//   - Worker mode: job queue consumer that runs submitted benchmarks
//   - All mode: server and worker in one process
//   - Bench mode: one benchmark over a local dataset file, no database
//   - Curves mode: ROC/PR curves from an exported results file
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/claim-bench/internal/api"
	"github.com/lueurxax/claim-bench/internal/bench"
	"github.com/lueurxax/claim-bench/internal/core/domain"
	"github.com/lueurxax/claim-bench/internal/core/llm"
	"github.com/lueurxax/claim-bench/internal/core/ports"
	"github.com/lueurxax/claim-bench/internal/evidence"
	"github.com/lueurxax/claim-bench/internal/platform/config"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
	"github.com/lueurxax/claim-bench/internal/prompts"
	db "github.com/lueurxax/claim-bench/internal/storage"
)

const (
	llmAPIKeyMock      = "mock"
	logFieldProviders  = "providers"
	logFieldComponent  = "component"
	msgWorkerStopped   = "benchmark worker stopped"
	engineListSplitter = ","
)

var errDatabaseRequired = errors.New("mode requires a database connection")

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
	closers  []func() error
}

// New creates an App. database may be nil for the offline modes.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// Close releases provider clients opened during wiring.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}

	a.closers = nil
}

// RunServer serves the benchmark API together with health and metrics.
func (a *App) RunServer(ctx context.Context) error {
	if a.database == nil {
		return errDatabaseRequired
	}

	service := a.newService(ctx)

	a.logger.Info().Msg("Starting server mode")

	return a.serve(ctx, service)
}

// RunWorker consumes the job queue. Health and metrics are served without the API.
func (a *App) RunWorker(ctx context.Context) error {
	if a.database == nil {
		return errDatabaseRequired
	}

	service := a.newService(ctx)

	a.logger.Info().Msg("Starting worker mode")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		srv := observability.NewServer(a.database, a.cfg.HTTPPort, a.logger)
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("health server start: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return a.runWorker(gctx, service)
	})

	return g.Wait()
}

// RunAll runs the API server and the queue worker in one process.
func (a *App) RunAll(ctx context.Context) error {
	if a.database == nil {
		return errDatabaseRequired
	}

	service := a.newService(ctx)

	a.logger.Info().Msg("Starting server and worker")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.serve(gctx, service)
	})

	g.Go(func() error {
		return a.runWorker(gctx, service)
	})

	return g.Wait()
}

func (a *App) serve(ctx context.Context, service *bench.Service) error {
	handler := api.NewHandler(service, api.Config{
		AuthToken:      a.cfg.APIAuthToken,
		UploadMaxBytes: a.cfg.UploadMaxBytes,
	}, a.componentLogger("api"))

	if a.cfg.APIAuthToken == "" {
		a.logger.Warn().Msg("API_AUTH_TOKEN is empty, API authentication disabled")
	}

	srv := observability.NewServerWithAPI(a.database, a.cfg.HTTPPort, handler, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	return nil
}

func (a *App) runWorker(ctx context.Context, service *bench.Service) error {
	worker := bench.NewWorker(a.database, service, bench.WorkerConfig{
		PollInterval: a.cfg.WorkerPollInterval,
		StaleAfter:   a.cfg.JobStaleAfter,
	}, a.componentLogger("worker"))

	err := worker.Run(ctx)

	a.logger.Info().Msg(msgWorkerStopped)

	return err
}

// newService wires the classification pipeline. Without a database the
// service can only evaluate datasets in memory.
func (a *App) newService(ctx context.Context) *bench.Service {
	registry := a.newRegistry(ctx)
	caller := llm.NewCaller(registry)
	fetcher := a.newEvidenceFetcher(caller)

	classifier := bench.NewClassifier(
		llm.NewQueryExtractor(registry),
		fetcher,
		prompts.NewBuilder(),
		caller,
		a.componentLogger("classifier"),
	)

	retrieval, err := domain.ParseRetrievalPolicy(a.cfg.BenchRetrievalPolicy)
	if err != nil {
		a.logger.Warn().Err(err).Msg("invalid BENCH_RETRIEVAL_POLICY, using strict")

		retrieval = domain.RetrievalStrict
	}

	cfg := bench.ServiceConfig{
		MaxIterations:   a.cfg.BenchMaxIterations,
		MaxWorkers:      a.cfg.BenchMaxWorkers,
		Models:          a.models(),
		RetrievalPolicy: retrieval,
	}

	var store ports.BenchmarkStore
	if a.database != nil {
		store = a.database
	}

	return bench.NewService(store, classifier, cfg, a.componentLogger("bench"))
}

// models snapshots the configured model names. The mock key routes every role
// to the offline mock provider.
func (a *App) models() domain.ModelSet {
	if a.cfg.LLMAPIKey == llmAPIKeyMock {
		return domain.ModelSet{Extract: llmAPIKeyMock, Classify: llmAPIKeyMock, Research: llmAPIKeyMock, Summary: llmAPIKeyMock}
	}

	return domain.ModelSet{
		Extract:  a.cfg.LLMExtractModel,
		Classify: a.cfg.LLMClassifyModel,
		Research: a.cfg.LLMResearchModel,
		Summary:  a.cfg.LLMSummaryModel,
	}
}

func (a *App) newRegistry(ctx context.Context) *llm.Registry {
	logger := a.componentLogger("llm")

	registry := llm.NewRegistry(llm.RegistryConfig{
		RequestTimeout: a.cfg.LLMRequestTimeout,
		Circuit: llm.CircuitBreakerConfig{
			Threshold:  a.cfg.LLMCircuitThreshold,
			ResetAfter: a.cfg.LLMCircuitTimeout,
		},
	}, logger)

	if a.cfg.LLMAPIKey == llmAPIKeyMock {
		registry.Register(llm.NewMockProvider())

		return registry
	}

	if a.cfg.LLMAPIKey != "" {
		registry.Register(llm.NewOpenAIProvider(a.cfg, logger))
	}

	if a.cfg.AnthropicAPIKey != "" {
		registry.Register(llm.NewAnthropicProvider(a.cfg, logger))
	}

	if a.cfg.GoogleAPIKey != "" {
		google, err := llm.NewGoogleProvider(ctx, a.cfg, logger)
		if err != nil {
			a.logger.Warn().Err(err).Msg("google provider disabled")
		} else {
			registry.Register(google)
			a.closers = append(a.closers, google.Close)
		}
	}

	if registry.ProviderCount() == 0 {
		a.logger.Warn().Msg("no LLM provider configured, every model call will fail")
	}

	return registry
}

func (a *App) newEvidenceFetcher(completer evidence.Completer) *evidence.Fetcher {
	providers := []evidence.Provider{
		evidence.NewSearxNGProvider(evidence.SearxNGConfig{
			Enabled: a.cfg.SearxNGEnabled,
			BaseURL: a.cfg.SearxNGBaseURL,
			Timeout: a.cfg.SearxNGTimeout,
			Engines: splitList(a.cfg.SearxNGEngines),
		}),
		evidence.NewGoogleNewsProvider(evidence.GoogleNewsConfig{
			Enabled: a.cfg.GoogleNewsRSSEnabled,
			URL:     a.cfg.GoogleNewsRSSURL,
			Locale:  a.cfg.GoogleNewsLocale,
			Timeout: a.cfg.WebFetchTimeout,
		}),
		evidence.NewFactCheckProvider(evidence.FactCheckConfig{
			Enabled:    a.cfg.FactCheckGoogleEnabled,
			APIKey:     a.cfg.FactCheckGoogleAPIKey,
			RPM:        a.cfg.FactCheckGoogleRPM,
			MaxResults: a.cfg.FactCheckGoogleMaxResults,
		}),
	}

	fetcher := evidence.NewFetcher(evidence.Config{
		MaxResults:    a.cfg.EvidenceMaxResults,
		FetchArticles: a.cfg.EvidenceFetchArticles,
		Summarize:     a.cfg.EvidenceSummarize,
	}, providers, evidence.NewArticleFetcher(a.cfg.WebFetchTimeout, a.cfg.EvidenceMaxContentLength), completer, a.componentLogger("evidence"))

	available := fetcher.AvailableProviders()
	names := make([]string, len(available))

	for i, p := range available {
		names[i] = string(p)
	}

	a.logger.Info().Strs(logFieldProviders, names).Msg("evidence providers configured")

	return fetcher
}

func (a *App) componentLogger(name string) *zerolog.Logger {
	logger := a.logger.With().Str(logFieldComponent, name).Logger()

	return &logger
}

func splitList(raw string) []string {
	var out []string

	for _, part := range strings.Split(raw, engineListSplitter) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
