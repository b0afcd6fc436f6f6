// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/claim-bench/internal/core/domain"
)

// JobQueue handles the benchmark job lifecycle.
type JobQueue interface {
	// CreateJob stores a pending job together with its dataset rows.
	CreateJob(ctx context.Context, job *domain.BenchmarkJob, rows []domain.ClaimRow) error
	// ClaimNextJob moves the oldest pending job to running. It returns
	// (nil, nil) when the queue is empty.
	ClaimNextJob(ctx context.Context) (*domain.BenchmarkJob, error)
	GetJobRows(ctx context.Context, jobID string) ([]domain.ClaimRow, error)
	MarkJobDone(ctx context.Context, jobID string) error
	MarkJobFailed(ctx context.Context, jobID, errMsg string) error
	CountPendingJobs(ctx context.Context) (int, error)
	RequeueStaleJobs(ctx context.Context, staleAfter time.Duration) (int64, error)
}

// ResultRepository persists benchmark outcomes.
type ResultRepository interface {
	// SaveSummary overwrites any summary already stored for the job.
	SaveSummary(ctx context.Context, jobID string, summary domain.Summary) error
	// SaveResults appends per-row results. It does not deduplicate.
	SaveResults(ctx context.Context, jobID string, results []domain.RowResult) error
	GetSummary(ctx context.Context, jobID string) (*domain.Summary, error)
	GetResults(ctx context.Context, jobID string) ([]domain.RowResult, error)
}

// JobReader provides read access to job records.
type JobReader interface {
	GetJob(ctx context.Context, jobID string) (*domain.BenchmarkJob, error)
	ListJobs(ctx context.Context, limit int) ([]domain.BenchmarkJob, error)
}

// BenchmarkStore combines every benchmark persistence operation.
type BenchmarkStore interface {
	JobQueue
	ResultRepository
	JobReader
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
