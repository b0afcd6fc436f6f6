package bench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/core/ports"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
)

const (
	// DefaultMaxIterations bounds Iterations when the config leaves it unset.
	DefaultMaxIterations = 20
	// DefaultListLimit is the page size of ListJobs when none is given.
	DefaultListLimit = 20
	maxListLimit     = 100

	runStatusDone   = "done"
	runStatusFailed = "failed"
	logKeyRows      = "rows"
	logKeyUsable    = "usable"
)

// ServiceConfig holds the limits and defaults applied to submissions.
type ServiceConfig struct {
	MaxIterations   int
	MaxWorkers      int
	Models          domain.ModelSet
	RetrievalPolicy domain.RetrievalPolicy
}

// Service is the benchmark application service: it validates and queues jobs,
// runs them, and serves stored results.
type Service struct {
	store      ports.BenchmarkStore
	classifier *Classifier
	runner     *Runner
	cfg        ServiceConfig
	logger     *zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewService wires a Service. store may be nil for modes that only evaluate
// datasets in memory.
func NewService(store ports.BenchmarkStore, classifier *Classifier, cfg ServiceConfig, logger *zerolog.Logger) *Service {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	if cfg.RetrievalPolicy == "" {
		cfg.RetrievalPolicy = domain.RetrievalStrict
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Service{
		store:      store,
		classifier: classifier,
		runner:     NewRunner(classifier, cfg.MaxWorkers, logger),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// ParamsRequest carries raw, user-supplied job options.
type ParamsRequest struct {
	UseExternalInfo bool
	PromptVariant   string
	OutputType      string
	Iterations      int
	RetrievalPolicy string
}

// NewParams parses a request into validated JobParams with the configured
// models snapshotted into it.
func (s *Service) NewParams(req ParamsRequest) (domain.JobParams, error) {
	variant, err := domain.ParsePromptVariant(req.PromptVariant)
	if err != nil {
		return domain.JobParams{}, err
	}

	output, err := domain.ParseOutputType(req.OutputType)
	if err != nil {
		return domain.JobParams{}, err
	}

	retrieval := s.cfg.RetrievalPolicy
	if strings.TrimSpace(req.RetrievalPolicy) != "" {
		if retrieval, err = domain.ParseRetrievalPolicy(req.RetrievalPolicy); err != nil {
			return domain.JobParams{}, err
		}
	}

	params := domain.JobParams{
		UseExternalInfo: req.UseExternalInfo,
		PromptVariant:   variant,
		OutputType:      output,
		Iterations:      req.Iterations,
		RetrievalPolicy: retrieval,
		Models:          s.cfg.Models,
	}

	if err := s.ValidateParams(params); err != nil {
		return domain.JobParams{}, err
	}

	return params, nil
}

// ValidateParams rejects parameters that no row could run with.
func (s *Service) ValidateParams(params domain.JobParams) error {
	if params.Iterations < 1 || params.Iterations > s.cfg.MaxIterations {
		return fmt.Errorf("%w: iterations must be between 1 and %d, got %d",
			apperrors.ErrInvalidInput, s.cfg.MaxIterations, params.Iterations)
	}

	if _, err := params.OutputType.Policy(); err != nil {
		return err
	}

	if _, err := domain.ParseRetrievalPolicy(string(params.RetrievalPolicy)); err != nil {
		return err
	}

	if err := s.classifier.prompts.Validate(params.UseExternalInfo, params.PromptVariant, params.OutputType); err != nil {
		return wrapIfMissing(err, apperrors.ErrConfiguration)
	}

	if params.Models.Classify == "" || params.Models.Extract == "" {
		return fmt.Errorf("%w: extract and classify models are required", apperrors.ErrConfiguration)
	}

	return nil
}

// Submit validates the dataset and parameters and queues a pending job.
func (s *Service) Submit(ctx context.Context, rows []domain.ClaimRow, params domain.JobParams) (string, error) {
	if err := s.ValidateParams(params); err != nil {
		return "", err
	}

	if len(rows) == 0 {
		return "", fmt.Errorf("%w: dataset has no rows", apperrors.ErrInvalidInput)
	}

	for i, row := range rows {
		if strings.TrimSpace(row.Statement) == "" {
			return "", fmt.Errorf("%w: row %d: empty statement", apperrors.ErrInvalidInput, i+1)
		}
	}

	if s.store == nil {
		return "", fmt.Errorf("%w: no job store configured", apperrors.ErrConfiguration)
	}

	job := &domain.BenchmarkJob{
		ID:        s.newID(),
		Status:    domain.JobPending,
		Params:    params,
		RowCount:  len(rows),
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.CreateJob(ctx, job, rows); err != nil {
		return "", fmt.Errorf("%w: create job: %w", apperrors.ErrStore, err)
	}

	s.logger.Info().Str(logKeyJobID, job.ID).Int(logKeyRows, len(rows)).Msg("benchmark job queued")

	return job.ID, nil
}

// Evaluate classifies rows and aggregates the results without touching the
// store. It fails with ErrNoUsableRows when no row produced an attempt. On
// cancellation it returns the partial summary with ctx.Err().
func (s *Service) Evaluate(ctx context.Context, rows []domain.ClaimRow, params domain.JobParams) (domain.Summary, []domain.RowResult, error) {
	if err := s.ValidateParams(params); err != nil {
		return domain.Summary{}, nil, err
	}

	policy, err := params.OutputType.Policy()
	if err != nil {
		return domain.Summary{}, nil, err
	}

	start := s.now()

	results, runErr := s.runner.Run(ctx, rows, params)

	summary := ComputeMetrics(results, params.Iterations, policy)
	summary.DurationSeconds = s.now().Sub(start).Seconds()

	if runErr != nil {
		return summary, results, runErr
	}

	if summary.RowsEvaluated == 0 {
		return summary, results, fmt.Errorf("%w: %d of %d rows produced no attempts",
			apperrors.ErrNoUsableRows, len(rows)-summary.RowsEvaluated, len(rows))
	}

	return summary, results, nil
}

// RunJob executes a claimed job and persists its results and summary. A store
// failure after aggregation is returned as ErrStore together with the summary.
// A cancelled run leaves the job running so it can be re-queued.
func (s *Service) RunJob(ctx context.Context, job *domain.BenchmarkJob) (*domain.Summary, error) {
	logger := s.logger.With().Str(logKeyJobID, job.ID).Logger()

	rows, err := s.store.GetJobRows(ctx, job.ID)
	if err != nil {
		err = fmt.Errorf("%w: load rows: %w", apperrors.ErrStore, err)
		if ctx.Err() != nil {
			return nil, err
		}

		s.fail(job.ID, err, &logger)

		return nil, err
	}

	logger.Info().Int(logKeyRows, len(rows)).Msg("benchmark started")

	summary, results, err := s.Evaluate(ctx, rows, job.Params)
	observability.BenchmarkDurationSeconds.Observe(summary.DurationSeconds)

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Err(err).Msg("benchmark interrupted")
			return nil, err
		}

		s.fail(job.ID, err, &logger)

		return nil, err
	}

	logger.Info().
		Int(logKeyUsable, summary.RowsEvaluated).
		Float64("accuracy", summary.Accuracy).
		Float64("duration_seconds", summary.DurationSeconds).
		Msg("benchmark finished")

	if err := s.persist(ctx, job.ID, summary, results); err != nil {
		logger.Error().Err(err).Msg("failed to persist benchmark")
		s.fail(job.ID, err, &logger)

		return &summary, err
	}

	observability.BenchmarkRuns.WithLabelValues(runStatusDone).Inc()

	return &summary, nil
}

func (s *Service) persist(ctx context.Context, jobID string, summary domain.Summary, results []domain.RowResult) error {
	if err := s.store.SaveResults(ctx, jobID, results); err != nil {
		return fmt.Errorf("%w: save results: %w", apperrors.ErrStore, err)
	}

	if err := s.store.SaveSummary(ctx, jobID, summary); err != nil {
		return fmt.Errorf("%w: save summary: %w", apperrors.ErrStore, err)
	}

	if err := s.store.MarkJobDone(ctx, jobID); err != nil {
		return fmt.Errorf("%w: mark done: %w", apperrors.ErrStore, err)
	}

	return nil
}

// fail marks the job failed with a detached context so shutdown does not
// leave a finished job in the running state.
func (s *Service) fail(jobID string, cause error, logger *zerolog.Logger) {
	observability.BenchmarkRuns.WithLabelValues(runStatusFailed).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.MarkJobFailed(ctx, jobID, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("failed to mark benchmark failed")
	}
}

// GetJob returns a job by id.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.BenchmarkJob, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, storeErr(err)
	}

	return job, nil
}

// ListJobs returns recent jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]domain.BenchmarkJob, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	jobs, err := s.store.ListJobs(ctx, min(limit, maxListLimit))
	if err != nil {
		return nil, storeErr(err)
	}

	return jobs, nil
}

// GetSummary returns the stored summary of a finished job.
func (s *Service) GetSummary(ctx context.Context, jobID string) (*domain.Summary, error) {
	summary, err := s.store.GetSummary(ctx, jobID)
	if err != nil {
		return nil, storeErr(err)
	}

	return summary, nil
}

// GetRawResults returns the stored per-row results of a job.
func (s *Service) GetRawResults(ctx context.Context, jobID string) ([]domain.RowResult, error) {
	results, err := s.store.GetResults(ctx, jobID)
	if err != nil {
		return nil, storeErr(err)
	}

	return results, nil
}

// ComputeCurves builds ROC and PR curves for one job's stored results.
func (s *Service) ComputeCurves(ctx context.Context, jobID string, opts CurveOptions) (*domain.Curves, error) {
	results, err := s.GetRawResults(ctx, jobID)
	if err != nil {
		return nil, err
	}

	curves := ComputeCurves(results, opts)
	curves.JobID = jobID

	return &curves, nil
}

// CompareCurves builds one curve pair per job for overlaying 1 to
// MaxCompareSets result sets.
func (s *Service) CompareCurves(ctx context.Context, jobIDs []string, opts CurveOptions) ([]domain.Curves, error) {
	if len(jobIDs) == 0 || len(jobIDs) > MaxCompareSets {
		return nil, fmt.Errorf("%w: compare needs 1 to %d job ids, got %d",
			apperrors.ErrInvalidInput, MaxCompareSets, len(jobIDs))
	}

	out := make([]domain.Curves, 0, len(jobIDs))

	for _, id := range jobIDs {
		curves, err := s.ComputeCurves(ctx, id, opts)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", id, err)
		}

		out = append(out, *curves)
	}

	return out, nil
}

// storeErr tags store failures with ErrStore while keeping ErrNotFound visible.
func storeErr(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrStore) {
		return err
	}

	return fmt.Errorf("%w: %w", apperrors.ErrStore, err)
}
