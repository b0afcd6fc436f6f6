package bench

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/core/llm"
	"github.com/lueurxax/claim-bench/internal/platform/observability"
)

const (
	logKeyIteration = "iteration"
	logKeyJobID     = "job_id"
	logKeyStatement = "statement"
	statementLogLen = 80
)

// QueryExtractor turns a claim into a short search query.
type QueryExtractor interface {
	ExtractQuery(ctx context.Context, model, text string) (string, error)
}

// EvidenceFetcher returns a block of external evidence for a claim.
type EvidenceFetcher interface {
	Fetch(ctx context.Context, query, statement string, enabled bool, models domain.ModelSet) (string, error)
}

// PromptBuilder renders the classification prompt.
type PromptBuilder interface {
	Validate(useExternal bool, variant domain.PromptVariant, output domain.OutputType) error
	Build(statement, evidence string, useExternal bool, variant domain.PromptVariant, output domain.OutputType) ([]llm.Message, error)
}

// ModelCaller sends one classification request.
type ModelCaller interface {
	Classify(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// Classifier runs the per-row pipeline: query extraction, optional evidence
// retrieval, prompt construction and repeated classification.
type Classifier struct {
	extractor QueryExtractor
	evidence  EvidenceFetcher
	prompts   PromptBuilder
	caller    ModelCaller
	logger    *zerolog.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(extractor QueryExtractor, evidence EvidenceFetcher, prompts PromptBuilder, caller ModelCaller, logger *zerolog.Logger) *Classifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Classifier{
		extractor: extractor,
		evidence:  evidence,
		prompts:   prompts,
		caller:    caller,
		logger:    logger,
	}
}

// ClassifyRow classifies one row params.Iterations times. A failed query
// extraction drops the row. A failed evidence fetch drops the row under the
// strict policy and continues with no evidence under the lenient one. A failed
// model call only skips its iteration, so the returned result may hold fewer
// attempts than requested, or none.
func (c *Classifier) ClassifyRow(ctx context.Context, row domain.ClaimRow, params domain.JobParams) (domain.RowResult, error) {
	logger := c.logger.With().Str(logKeyStatement, shorten(row.Statement)).Logger()

	if err := ctx.Err(); err != nil {
		return domain.RowResult{}, err
	}

	query, err := c.extractor.ExtractQuery(ctx, params.Models.Extract, row.Statement)
	if err != nil {
		logger.Warn().Err(err).Msg("query extraction failed, dropping row")
		return domain.RowResult{}, wrapIfMissing(err, apperrors.ErrExtraction)
	}

	evidence, err := c.fetchEvidence(ctx, query, row, params, &logger)
	if err != nil {
		return domain.RowResult{}, err
	}

	messages, err := c.prompts.Build(row.Statement, evidence, params.UseExternalInfo, params.PromptVariant, params.OutputType)
	if err != nil {
		return domain.RowResult{}, wrapIfMissing(err, apperrors.ErrConfiguration)
	}

	result := domain.NewRowResult(row)

	for i := range params.Iterations {
		if err := ctx.Err(); err != nil {
			return domain.RowResult{}, err
		}

		raw, err := c.caller.Classify(ctx, params.Models.Classify, messages)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.RowResult{}, ctxErr
			}

			observability.IterationsProcessed.WithLabelValues(observability.StatusError).Inc()
			logger.Warn().Err(err).Int(logKeyIteration, i).Msg("classification call failed, skipping iteration")

			continue
		}

		predicted, score := ParseOutput(strings.TrimSpace(raw))
		result.Append(domain.Attempt{
			Predicted: predicted,
			Score:     score,
			Correct:   predicted == row.GoldBinary,
		})

		observability.IterationsProcessed.WithLabelValues(observability.StatusSuccess).Inc()
	}

	return result, nil
}

func (c *Classifier) fetchEvidence(ctx context.Context, query string, row domain.ClaimRow, params domain.JobParams, logger *zerolog.Logger) (string, error) {
	if !params.UseExternalInfo {
		return "", nil
	}

	evidence, err := c.evidence.Fetch(ctx, query, row.Statement, true, params.Models)
	if err == nil {
		return evidence, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	if params.RetrievalPolicy == domain.RetrievalLenient {
		logger.Warn().Err(err).Msg("evidence retrieval failed, continuing without evidence")
		return "", nil
	}

	logger.Warn().Err(err).Msg("evidence retrieval failed, dropping row")

	return "", wrapIfMissing(err, apperrors.ErrRetrieval)
}

// wrapIfMissing tags err with sentinel unless it already carries it.
func wrapIfMissing(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}

	return fmt.Errorf("%w: %w", sentinel, err)
}

func shorten(s string) string {
	r := []rune(s)
	if len(r) <= statementLogLen {
		return s
	}

	return string(r[:statementLogLen]) + "..."
}
