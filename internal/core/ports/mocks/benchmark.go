package mocks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// BenchmarkStore is a thread-safe in-memory implementation of ports.BenchmarkStore.
type BenchmarkStore struct {
	mu        sync.RWMutex
	jobs      map[string]*domain.BenchmarkJob
	order     []string
	rows      map[string][]domain.ClaimRow
	summaries map[string]domain.Summary
	results   map[string][]domain.RowResult
	now       func() time.Time

	// CreateJobFn allows overriding CreateJob behavior.
	CreateJobFn func(ctx context.Context, job *domain.BenchmarkJob, rows []domain.ClaimRow) error

	// SaveSummaryFn allows overriding SaveSummary behavior.
	SaveSummaryFn func(ctx context.Context, jobID string, summary domain.Summary) error

	// SaveResultsFn allows overriding SaveResults behavior.
	SaveResultsFn func(ctx context.Context, jobID string, results []domain.RowResult) error

	// ClaimNextJobFn allows overriding ClaimNextJob behavior.
	ClaimNextJobFn func(ctx context.Context) (*domain.BenchmarkJob, error)

	// GetJobRowsFn allows overriding GetJobRows behavior.
	GetJobRowsFn func(ctx context.Context, jobID string) ([]domain.ClaimRow, error)
}

// NewBenchmarkStore creates a new mock benchmark store.
func NewBenchmarkStore() *BenchmarkStore {
	return &BenchmarkStore{
		jobs:      make(map[string]*domain.BenchmarkJob),
		rows:      make(map[string][]domain.ClaimRow),
		summaries: make(map[string]domain.Summary),
		results:   make(map[string][]domain.RowResult),
		now:       time.Now,
	}
}

// CreateJob stores a pending job and its rows.
func (s *BenchmarkStore) CreateJob(ctx context.Context, job *domain.BenchmarkJob, rows []domain.ClaimRow) error {
	if s.CreateJobFn != nil {
		return s.CreateJobFn(ctx, job, rows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: job %s already exists", apperrors.ErrStore, job.ID)
	}

	stored := *job
	if stored.Status == "" {
		stored.Status = domain.JobPending
	}

	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}

	stored.RowCount = len(rows)
	job.Status, job.CreatedAt, job.RowCount = stored.Status, stored.CreatedAt, stored.RowCount

	s.jobs[job.ID] = &stored
	s.order = append(s.order, job.ID)
	s.rows[job.ID] = slices.Clone(rows)

	return nil
}

// ClaimNextJob marks the oldest pending job as running.
func (s *BenchmarkStore) ClaimNextJob(ctx context.Context) (*domain.BenchmarkJob, error) {
	if s.ClaimNextJobFn != nil {
		return s.ClaimNextJobFn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status != domain.JobPending {
			continue
		}

		started := s.now()
		job.Status = domain.JobRunning
		job.StartedAt = &started
		job.Error = ""

		claimed := *job

		return &claimed, nil
	}

	return nil, nil //nolint:nilnil // empty queue is not an error
}

// GetJobRows returns the dataset rows of a job.
func (s *BenchmarkStore) GetJobRows(ctx context.Context, jobID string) ([]domain.ClaimRow, error) {
	if s.GetJobRowsFn != nil {
		return s.GetJobRowsFn(ctx, jobID)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.jobs[jobID]; !ok {
		return nil, errJobNotFound
	}

	return slices.Clone(s.rows[jobID]), nil
}

// MarkJobDone finishes a job successfully.
func (s *BenchmarkStore) MarkJobDone(_ context.Context, jobID string) error {
	return s.finish(jobID, domain.JobDone, "")
}

// MarkJobFailed finishes a job with an error message.
func (s *BenchmarkStore) MarkJobFailed(_ context.Context, jobID, errMsg string) error {
	return s.finish(jobID, domain.JobFailed, errMsg)
}

func (s *BenchmarkStore) finish(jobID string, status domain.JobStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return errJobNotFound
	}

	finished := s.now()
	job.Status = status
	job.Error = errMsg
	job.FinishedAt = &finished

	return nil
}

// CountPendingJobs returns the number of pending jobs.
func (s *BenchmarkStore) CountPendingJobs(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0

	for _, job := range s.jobs {
		if job.Status == domain.JobPending {
			count++
		}
	}

	return count, nil
}

// RequeueStaleJobs returns running jobs started before now-staleAfter to the queue.
func (s *BenchmarkStore) RequeueStaleJobs(_ context.Context, staleAfter time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-staleAfter)

	var requeued int64

	for _, job := range s.jobs {
		if job.Status == domain.JobRunning && job.StartedAt != nil && job.StartedAt.Before(cutoff) {
			job.Status = domain.JobPending
			job.StartedAt = nil
			requeued++
		}
	}

	return requeued, nil
}

// SaveSummary stores or replaces the summary of a job.
func (s *BenchmarkStore) SaveSummary(ctx context.Context, jobID string, summary domain.Summary) error {
	if s.SaveSummaryFn != nil {
		return s.SaveSummaryFn(ctx, jobID, summary)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[jobID] = summary

	return nil
}

// SaveResults appends per-row results of a job.
func (s *BenchmarkStore) SaveResults(ctx context.Context, jobID string, results []domain.RowResult) error {
	if s.SaveResultsFn != nil {
		return s.SaveResultsFn(ctx, jobID, results)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[jobID] = append(s.results[jobID], results...)

	return nil
}

// GetSummary returns the stored summary of a job.
func (s *BenchmarkStore) GetSummary(_ context.Context, jobID string) (*domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[jobID]
	if !ok {
		return nil, fmt.Errorf("summary %w", apperrors.ErrNotFound)
	}

	return &summary, nil
}

// GetResults returns the stored per-row results of a job.
func (s *BenchmarkStore) GetResults(_ context.Context, jobID string) ([]domain.RowResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.jobs[jobID]; !ok {
		if _, has := s.results[jobID]; !has {
			return nil, errJobNotFound
		}
	}

	return slices.Clone(s.results[jobID]), nil
}

// GetJob returns a job by id.
func (s *BenchmarkStore) GetJob(_ context.Context, jobID string) (*domain.BenchmarkJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errJobNotFound
	}

	copied := *job

	return &copied, nil
}

// ListJobs returns up to limit jobs, newest first.
func (s *BenchmarkStore) ListJobs(_ context.Context, limit int) ([]domain.BenchmarkJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]domain.BenchmarkJob, 0, len(s.order))

	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(jobs) >= limit {
			break
		}

		jobs = append(jobs, *s.jobs[s.order[i]])
	}

	return jobs, nil
}

// SetNow replaces the clock used for timestamps.
func (s *BenchmarkStore) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.now = now
}

// SetJobStatus forces the status of a stored job.
func (s *BenchmarkStore) SetJobStatus(jobID string, status domain.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
}

// ResultCount returns the number of stored results for a job.
func (s *BenchmarkStore) ResultCount(jobID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.results[jobID])
}

// Ping always succeeds.
func (s *BenchmarkStore) Ping(_ context.Context) error {
	return nil
}
