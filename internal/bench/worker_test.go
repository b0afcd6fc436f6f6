package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	"github.com/lueurxax/claim-bench/internal/core/ports/mocks"
)

func TestWorkerProcessNext(t *testing.T) {
	store := mocks.NewBenchmarkStore()
	caller := fixedReplies(map[string]string{stmtReal: "true", stmtFake: "false"})
	svc := newTestService(store, okExtractor(), noEvidence(), newStubBuilder(), caller)
	w := NewWorker(store, svc, WorkerConfig{}, nil)
	ctx := context.Background()

	worked, err := w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.False(t, worked)

	id, err := svc.Submit(ctx, testRows(), testParams(domain.OutputBinary, 1))
	require.NoError(t, err)

	worked, err = w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, worked)

	job, _ := store.GetJob(ctx, id)
	assert.Equal(t, domain.JobDone, job.Status)
	assert.Equal(t, 2, store.ResultCount(id))
}

func TestWorkerProcessNextClaimError(t *testing.T) {
	store := mocks.NewBenchmarkStore()
	errClaim := errors.New("db down")
	store.ClaimNextJobFn = func(context.Context) (*domain.BenchmarkJob, error) {
		return nil, errClaim
	}

	w := NewWorker(store, nil, WorkerConfig{}, nil)

	_, err := w.ProcessNext(context.Background())
	require.ErrorIs(t, err, errClaim)
}

func TestWorkerRequeuesStaleJobs(t *testing.T) {
	store := mocks.NewBenchmarkStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store.SetNow(func() time.Time { return base })

	ctx := context.Background()
	require.NoError(t, store.CreateJob(ctx, &domain.BenchmarkJob{ID: "stale"}, testRows()))

	_, err := store.ClaimNextJob(ctx)
	require.NoError(t, err)

	store.SetNow(func() time.Time { return base.Add(3 * time.Hour) })

	w := NewWorker(store, nil, WorkerConfig{StaleAfter: time.Hour}, nil)
	w.requeueStale(ctx)

	job, _ := store.GetJob(ctx, "stale")
	assert.Equal(t, domain.JobPending, job.Status)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	store := mocks.NewBenchmarkStore()
	w := NewWorker(store, nil, WorkerConfig{PollInterval: time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
