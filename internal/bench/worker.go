package bench

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	"github.com/lueurxax/claim-bench/internal/core/ports"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
	"github.com/lueurxax/claim-bench/internal/platform/worker"
)

const (
	workerName             = "benchmark-worker"
	defaultPollInterval    = 5 * time.Second
	defaultStaleAfter      = 2 * time.Hour
	housekeepingInterval   = time.Minute
	taskRequeueStale       = "requeue-stale-jobs"
	taskQueueDepth         = "queue-depth"
	housekeepingOpDeadline = 10 * time.Second
)

// JobRunner executes a claimed job. *Service implements it.
type JobRunner interface {
	RunJob(ctx context.Context, job *domain.BenchmarkJob) (*domain.Summary, error)
}

// WorkerConfig controls the job queue worker.
type WorkerConfig struct {
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// Worker claims queued benchmark jobs and runs them one at a time.
type Worker struct {
	queue  ports.JobQueue
	runner JobRunner
	cfg    WorkerConfig
	logger *zerolog.Logger
}

// NewWorker creates a Worker.
func NewWorker(queue ports.JobQueue, runner JobRunner, cfg WorkerConfig, logger *zerolog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Worker{queue: queue, runner: runner, cfg: cfg, logger: logger}
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return worker.Loop(ctx, worker.Config{
		Name:         workerName,
		PollInterval: w.cfg.PollInterval,
		Process:      w.ProcessNext,
		PeriodicTasks: []worker.PeriodicTask{
			{Name: taskRequeueStale, Interval: housekeepingInterval, Run: w.requeueStale},
			{Name: taskQueueDepth, Interval: housekeepingInterval, Run: w.updateQueueDepth},
		},
		Logger: w.logger,
	})
}

// ProcessNext claims and runs the next pending job. It reports whether a job
// was found. Job failures are recorded on the job, not returned.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.queue.ClaimNextJob(ctx)
	if err != nil {
		return false, err
	}

	if job == nil {
		return false, nil
	}

	if _, err := w.runner.RunJob(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return true, nil
		}

		w.logger.Error().Err(err).Str(logKeyJobID, job.ID).Msg("benchmark job failed")
	}

	return true, nil
}

func (w *Worker) requeueStale(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, housekeepingOpDeadline)
	defer cancel()

	n, err := w.queue.RequeueStaleJobs(ctx, w.cfg.StaleAfter)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to requeue stale jobs")
		return
	}

	if n > 0 {
		w.logger.Info().Int64("count", n).Msg("requeued stale benchmark jobs")
	}
}

func (w *Worker) updateQueueDepth(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, housekeepingOpDeadline)
	defer cancel()

	n, err := w.queue.CountPendingJobs(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to count pending jobs")
		return
	}

	observability.JobQueueDepth.Set(float64(n))
}
