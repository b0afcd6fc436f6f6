package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

const jobColumns = `id, status, params, row_count, error_message, created_at, started_at, finished_at`

// CreateJob inserts a pending job and copies its dataset rows in one transaction.
func (db *DB) CreateJob(ctx context.Context, job *domain.BenchmarkJob, rows []domain.ClaimRow) error {
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // best-effort rollback
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO benchmark_jobs (id, status, params, row_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, toUUID(job.ID), string(domain.JobPending), params, len(rows), job.CreatedAt); err != nil {
		return fmt.Errorf("insert benchmark job: %w", err)
	}

	jobID := toUUID(job.ID)
	copyRows := make([][]any, len(rows))

	for i, row := range rows {
		copyRows[i] = []any{jobID, i, SanitizeUTF8(row.Statement), row.Label, row.GoldBinary}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{tableJobRows},
		[]string{"job_id", "position", "statement", "label", "gold_binary"},
		pgx.CopyFromRows(copyRows),
	); err != nil {
		return fmt.Errorf("copy job rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create job: %w", err)
	}

	job.Status = domain.JobPending
	job.RowCount = len(rows)

	return nil
}

// ClaimNextJob marks the oldest pending job as running. Concurrent workers
// never claim the same job.
func (db *DB) ClaimNextJob(ctx context.Context) (*domain.BenchmarkJob, error) {
	row := db.Pool.QueryRow(ctx, `
		WITH picked AS (
			SELECT id
			FROM benchmark_jobs
			WHERE status = $1
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE benchmark_jobs j
		SET status = $2,
			started_at = now(),
			finished_at = NULL,
			error_message = NULL,
			updated_at = now()
		FROM picked
		WHERE j.id = picked.id
		RETURNING j.id, j.status, j.params, j.row_count, j.error_message, j.created_at, j.started_at, j.finished_at
	`, string(domain.JobPending), string(domain.JobRunning))

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil,nil indicates no pending job available
		}

		return nil, fmt.Errorf("claim next job: %w", err)
	}

	return job, nil
}

// GetJobRows returns a job's dataset rows in their original order.
func (db *DB) GetJobRows(ctx context.Context, jobID string) ([]domain.ClaimRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT statement, label, gold_binary
		FROM benchmark_job_rows
		WHERE job_id = $1
		ORDER BY position
	`, toUUID(jobID))
	if err != nil {
		return nil, fmt.Errorf("query job rows: %w", err)
	}
	defer rows.Close()

	var out []domain.ClaimRow

	for rows.Next() {
		var r domain.ClaimRow
		if err := rows.Scan(&r.Statement, &r.Label, &r.GoldBinary); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}

	return out, nil
}

// MarkJobDone finishes a job successfully.
func (db *DB) MarkJobDone(ctx context.Context, jobID string) error {
	return db.finishJob(ctx, jobID, domain.JobDone, "")
}

// MarkJobFailed finishes a job with an error message.
func (db *DB) MarkJobFailed(ctx context.Context, jobID, errMsg string) error {
	return db.finishJob(ctx, jobID, domain.JobFailed, errMsg)
}

func (db *DB) finishJob(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) error {
	if len(errMsg) > errMsgMaxLen {
		errMsg = errMsg[:errMsgMaxLen]
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE benchmark_jobs
		SET status = $2,
			error_message = $3,
			finished_at = now(),
			updated_at = now()
		WHERE id = $1
	`, toUUID(jobID), string(status), toText(errMsg))
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", jobID, apperrors.ErrNotFound)
	}

	return nil
}

// CountPendingJobs returns the queue depth.
func (db *DB) CountPendingJobs(ctx context.Context) (int, error) {
	var count int

	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM benchmark_jobs
		WHERE status = $1
	`, string(domain.JobPending)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}

	return count, nil
}

// RequeueStaleJobs returns jobs left running longer than staleAfter to the
// queue. Results from the interrupted attempt are discarded.
func (db *DB) RequeueStaleJobs(ctx context.Context, staleAfter time.Duration) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin requeue: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // best-effort rollback
	}()

	rows, err := tx.Query(ctx, `
		UPDATE benchmark_jobs
		SET status = $1,
			started_at = NULL,
			updated_at = now()
		WHERE status = $2
		  AND started_at < now() - make_interval(secs => $3)
		RETURNING id
	`, string(domain.JobPending), string(domain.JobRunning), staleAfter.Seconds())
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.UUID])
	if err != nil {
		return 0, fmt.Errorf("collect requeued jobs: %w", err)
	}

	if len(ids) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM benchmark_results WHERE job_id = ANY($1)`, ids); err != nil {
			return 0, fmt.Errorf("clear partial results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit requeue: %w", err)
	}

	return int64(len(ids)), nil
}

// SaveSummary upserts the summary of a job.
func (db *DB) SaveSummary(ctx context.Context, jobID string, summary domain.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO benchmark_summaries (job_id, metrics, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (job_id) DO UPDATE
		SET metrics = EXCLUDED.metrics,
			updated_at = EXCLUDED.updated_at
	`, toUUID(jobID), payload)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}

	return nil
}

// SaveResults bulk-inserts per-row results. Repeated calls append.
func (db *DB) SaveResults(ctx context.Context, jobID string, results []domain.RowResult) error {
	if len(results) == 0 {
		return nil
	}

	id := toUUID(jobID)
	copyRows := make([][]any, len(results))

	for i, r := range results {
		copyRows[i] = []any{id, SanitizeUTF8(r.Statement), r.GoldBinary, r.Predictions, r.Scores, r.Correctness}
	}

	_, err := db.Pool.CopyFrom(ctx,
		pgx.Identifier{tableResults},
		[]string{"job_id", "statement", "gold_binary", "predictions", "scores", "correctness"},
		pgx.CopyFromRows(copyRows),
	)
	if err != nil {
		return fmt.Errorf("copy results: %w", err)
	}

	return nil
}

// GetSummary returns the stored summary of a job.
func (db *DB) GetSummary(ctx context.Context, jobID string) (*domain.Summary, error) {
	var payload []byte

	err := db.Pool.QueryRow(ctx, `
		SELECT metrics
		FROM benchmark_summaries
		WHERE job_id = $1
	`, toUUID(jobID)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("summary for job %s: %w", jobID, apperrors.ErrNotFound)
		}

		return nil, fmt.Errorf("get summary: %w", err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}

	return &summary, nil
}

// GetResults returns every stored row result of a job.
func (db *DB) GetResults(ctx context.Context, jobID string) ([]domain.RowResult, error) {
	if _, err := db.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT statement, gold_binary, predictions, scores, correctness
		FROM benchmark_results
		WHERE job_id = $1
		ORDER BY id
	`, toUUID(jobID))
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := []domain.RowResult{}

	for rows.Next() {
		var r domain.RowResult
		if err := rows.Scan(&r.Statement, &r.GoldBinary, &r.Predictions, &r.Scores, &r.Correctness); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return out, nil
}

// GetJob returns a job by id.
func (db *DB) GetJob(ctx context.Context, jobID string) (*domain.BenchmarkJob, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM benchmark_jobs WHERE id = $1`, toUUID(jobID))

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", jobID, apperrors.ErrNotFound)
		}

		return nil, fmt.Errorf("get job: %w", err)
	}

	return job, nil
}

// ListJobs returns up to limit jobs, newest first.
func (db *DB) ListJobs(ctx context.Context, limit int) ([]domain.BenchmarkJob, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM benchmark_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.BenchmarkJob{}

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}

		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	return jobs, nil
}

func scanJob(row pgx.Row) (*domain.BenchmarkJob, error) {
	var (
		id         pgtype.UUID
		status     string
		params     []byte
		errMsg     pgtype.Text
		startedAt  pgtype.Timestamptz
		finishedAt pgtype.Timestamptz
		job        domain.BenchmarkJob
	)

	if err := row.Scan(&id, &status, &params, &job.RowCount, &errMsg, &job.CreatedAt, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(params, &job.Params); err != nil {
		return nil, fmt.Errorf("unmarshal job params: %w", err)
	}

	job.ID = fromUUID(id)
	job.Status = domain.JobStatus(status)
	job.Error = fromText(errMsg)
	job.StartedAt = fromTimestamptzPtr(startedAt)
	job.FinishedAt = fromTimestamptzPtr(finishedAt)

	return &job, nil
}
