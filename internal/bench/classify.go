package bench

import (
	"context"
	"fmt"
	"strings"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

// Verdict is one parsed classification response.
type Verdict struct {
	Predicted bool    `json:"predicted"`
	Score     float64 `json:"score"`
}

// ClaimClassification is the outcome of classifying a single ad-hoc claim.
type ClaimClassification struct {
	SearchQuery   string               `json:"search_query"`
	Evidence      string               `json:"evidence,omitempty"`
	PromptVariant domain.PromptVariant `json:"used_prompt_variant"`
	ExternalInfo  bool                 `json:"external_info_used"`
	OutputType    domain.OutputType    `json:"output_type"`
	Iterations    int                  `json:"iterations"`
	Responses     []string             `json:"responses"`
	Verdicts      []Verdict            `json:"verdicts"`
}

// ClassifyClaim runs the classification pipeline for one claim and returns the
// raw model responses. Unlike a benchmark row, every failure here is returned
// to the caller: evidence errors are ErrRetrieval regardless of the retrieval
// policy and a failed call aborts with ErrCall.
func (s *Service) ClassifyClaim(ctx context.Context, statement string, params domain.JobParams) (*ClaimClassification, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return nil, fmt.Errorf("%w: post must not be empty", apperrors.ErrInvalidInput)
	}

	if err := s.ValidateParams(params); err != nil {
		return nil, err
	}

	c := s.classifier

	query, err := c.extractor.ExtractQuery(ctx, params.Models.Extract, statement)
	if err != nil {
		return nil, wrapIfMissing(err, apperrors.ErrExtraction)
	}

	evidence := ""
	if params.UseExternalInfo {
		evidence, err = c.evidence.Fetch(ctx, query, statement, true, params.Models)
		if err != nil {
			return nil, wrapIfMissing(err, apperrors.ErrRetrieval)
		}
	}

	messages, err := c.prompts.Build(statement, evidence, params.UseExternalInfo, params.PromptVariant, params.OutputType)
	if err != nil {
		return nil, wrapIfMissing(err, apperrors.ErrConfiguration)
	}

	out := &ClaimClassification{
		SearchQuery:   query,
		Evidence:      evidence,
		PromptVariant: params.PromptVariant,
		ExternalInfo:  params.UseExternalInfo,
		OutputType:    params.OutputType,
		Iterations:    params.Iterations,
		Responses:     make([]string, 0, params.Iterations),
		Verdicts:      make([]Verdict, 0, params.Iterations),
	}

	for range params.Iterations {
		raw, err := c.caller.Classify(ctx, params.Models.Classify, messages)
		if err != nil {
			return nil, wrapIfMissing(err, apperrors.ErrCall)
		}

		raw = strings.TrimSpace(raw)
		predicted, score := ParseOutput(raw)

		out.Responses = append(out.Responses, raw)
		out.Verdicts = append(out.Verdicts, Verdict{Predicted: predicted, Score: score})
	}

	return out, nil
}
