package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

const errUnknownFmt = "%w: unknown %s %q"

// PromptVariant selects the prompt length.
type PromptVariant string

// Prompt variants.
const (
	PromptVariantDefault PromptVariant = "default"
	PromptVariantShort   PromptVariant = "short"
)

// ParsePromptVariant accepts "long" as an alias of the default variant.
// An empty tag selects the default.
func ParsePromptVariant(s string) (PromptVariant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "long":
		return PromptVariantDefault, nil
	case "short":
		return PromptVariantShort, nil
	default:
		return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "prompt variant", s)
	}
}

// OutputType selects the response format requested from the model.
type OutputType string

// Output types.
const (
	OutputBinary     OutputType = "binary"
	OutputScore      OutputType = "score"
	OutputBinaryExpl OutputType = "binary_expl"
	OutputScoreExpl  OutputType = "score_expl"
	OutputDetailed   OutputType = "detailed"
)

// OutputTypes lists every output type in display order.
var OutputTypes = []OutputType{OutputBinary, OutputScore, OutputBinaryExpl, OutputScoreExpl, OutputDetailed}

// ParseOutputType parses an output type tag. An empty tag selects binary.
func ParseOutputType(s string) (OutputType, error) {
	t := OutputType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return OutputBinary, nil
	}

	for _, known := range OutputTypes {
		if t == known {
			return t, nil
		}
	}

	return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "output type", s)
}

// Policy returns the aggregation policy used for this output type.
// Score-bearing outputs are evaluated per attempt, binary ones per row.
func (t OutputType) Policy() (AggregationPolicy, error) {
	switch t {
	case OutputScore, OutputScoreExpl, OutputDetailed:
		return PolicyPerScore, nil
	case OutputBinary, OutputBinaryExpl:
		return PolicyMajorityVote, nil
	default:
		return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "output type", string(t))
	}
}

// AggregationPolicy selects how attempts are turned into (gold, predicted) pairs.
type AggregationPolicy string

// Aggregation policies.
const (
	PolicyPerScore     AggregationPolicy = "per_score"
	PolicyMajorityVote AggregationPolicy = "majority_vote"
)

// ParseAggregationPolicy parses an aggregation policy tag.
func ParseAggregationPolicy(s string) (AggregationPolicy, error) {
	switch p := AggregationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyPerScore, PolicyMajorityVote:
		return p, nil
	default:
		return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "aggregation policy", s)
	}
}

// RetrievalPolicy decides what happens to a row whose evidence fetch fails.
type RetrievalPolicy string

// Retrieval policies.
const (
	// RetrievalStrict drops the row.
	RetrievalStrict RetrievalPolicy = "strict"
	// RetrievalLenient continues with an empty evidence block.
	RetrievalLenient RetrievalPolicy = "lenient"
)

// ParseRetrievalPolicy parses a retrieval policy tag. An empty tag selects strict.
func ParseRetrievalPolicy(s string) (RetrievalPolicy, error) {
	switch p := RetrievalPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RetrievalStrict, nil
	case RetrievalStrict, RetrievalLenient:
		return p, nil
	default:
		return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "retrieval policy", s)
	}
}

// JobStatus is the lifecycle state of a benchmark job.
type JobStatus string

// Job statuses.
const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// ParseJobStatus parses a job status tag.
func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case JobPending, JobRunning, JobDone, JobFailed:
		return st, nil
	default:
		return "", fmt.Errorf(errUnknownFmt, apperrors.ErrConfiguration, "job status", s)
	}
}

// Terminal reports whether the job will not change state again.
func (s JobStatus) Terminal() bool {
	return s == JobDone || s == JobFailed
}
