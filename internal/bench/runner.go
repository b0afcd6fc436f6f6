package bench

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
)

// DefaultMaxWorkers caps the number of rows classified concurrently.
const DefaultMaxWorkers = 32

// RowClassifier classifies a single row. *Classifier implements it.
type RowClassifier interface {
	ClassifyRow(ctx context.Context, row domain.ClaimRow, params domain.JobParams) (domain.RowResult, error)
}

// Runner fans rows out to a bounded pool of classifiers.
type Runner struct {
	classifier RowClassifier
	maxWorkers int
	logger     *zerolog.Logger
}

// NewRunner creates a Runner. maxWorkers <= 0 selects DefaultMaxWorkers.
func NewRunner(classifier RowClassifier, maxWorkers int, logger *zerolog.Logger) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Runner{classifier: classifier, maxWorkers: maxWorkers, logger: logger}
}

// Run classifies every row with at most min(maxWorkers, len(rows)) rows in
// flight and returns the results in completion order. Failed rows are logged
// and left out. A configuration error aborts the batch. When ctx is cancelled
// Run stops starting rows and returns what finished together with ctx.Err().
func (r *Runner) Run(ctx context.Context, rows []domain.ClaimRow, params domain.JobParams) ([]domain.RowResult, error) {
	if len(rows) == 0 {
		return []domain.RowResult{}, nil
	}

	var (
		mu      sync.Mutex
		results = make([]domain.RowResult, 0, len(rows))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.maxWorkers, len(rows)))

	for _, row := range rows {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			observability.RowsInFlight.Inc()
			defer observability.RowsInFlight.Dec()

			res, err := r.classifier.ClassifyRow(gctx, row, params)
			if err != nil {
				if errors.Is(err, apperrors.ErrConfiguration) {
					return err
				}

				observability.RowsProcessed.WithLabelValues(observability.StatusDropped).Inc()

				if gctx.Err() == nil {
					r.logger.Warn().Err(err).Str(logKeyStatement, shorten(row.Statement)).Msg("row dropped")
				}

				return nil
			}

			status := observability.StatusSuccess
			if res.Attempts() == 0 {
				status = observability.StatusEmpty
			}

			observability.RowsProcessed.WithLabelValues(status).Inc()

			mu.Lock()
			results = append(results, res)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, nil
}
