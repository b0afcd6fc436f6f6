package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

func TestNewClaimRowBinarizesLabel(t *testing.T) {
	tests := []struct {
		label int
		want  bool
	}{
		{label: 1, want: false},
		{label: 3, want: false},
		{label: 4, want: true},
		{label: 6, want: true},
	}

	for _, tt := range tests {
		row := NewClaimRow("claim", tt.label)
		assert.Equal(t, tt.want, row.GoldBinary, "label %d", tt.label)
	}
}

func TestRowResultAppendKeepsAlignment(t *testing.T) {
	r := NewRowResult(NewClaimRow("claim", 5))
	require.Equal(t, 0, r.Attempts())
	assert.True(t, r.Valid(1))

	r.Append(Attempt{Predicted: true, Score: 0.9, Correct: true})
	r.Append(Attempt{Predicted: false, Score: 0.1, Correct: false})

	assert.Equal(t, 2, r.Attempts())
	assert.Equal(t, []bool{true, false}, r.Predictions)
	assert.Equal(t, []float64{0.9, 0.1}, r.Scores)
	assert.Equal(t, []bool{true, false}, r.Correctness)
	assert.True(t, r.Valid(2))
	assert.False(t, r.Valid(1))

	r.Scores = r.Scores[:1]
	assert.False(t, r.Valid(3))
}

func TestParseEnums(t *testing.T) {
	v, err := ParsePromptVariant("long")
	require.NoError(t, err)
	assert.Equal(t, PromptVariantDefault, v)

	v, err = ParsePromptVariant("SHORT")
	require.NoError(t, err)
	assert.Equal(t, PromptVariantShort, v)

	ot, err := ParseOutputType("")
	require.NoError(t, err)
	assert.Equal(t, OutputBinary, ot)

	ot, err = ParseOutputType("score_expl")
	require.NoError(t, err)
	assert.Equal(t, OutputScoreExpl, ot)

	rp, err := ParseRetrievalPolicy("")
	require.NoError(t, err)
	assert.Equal(t, RetrievalStrict, rp)

	st, err := ParseJobStatus("done")
	require.NoError(t, err)
	assert.True(t, st.Terminal())

	for name, parse := range map[string]func(string) error{
		"variant":   func(s string) error { _, err := ParsePromptVariant(s); return err },
		"output":    func(s string) error { _, err := ParseOutputType(s); return err },
		"policy":    func(s string) error { _, err := ParseAggregationPolicy(s); return err },
		"retrieval": func(s string) error { _, err := ParseRetrievalPolicy(s); return err },
		"status":    func(s string) error { _, err := ParseJobStatus(s); return err },
	} {
		t.Run(name, func(t *testing.T) {
			err := parse("bogus")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
		})
	}
}

func TestOutputTypePolicy(t *testing.T) {
	tests := []struct {
		output OutputType
		want   AggregationPolicy
	}{
		{OutputBinary, PolicyMajorityVote},
		{OutputBinaryExpl, PolicyMajorityVote},
		{OutputScore, PolicyPerScore},
		{OutputScoreExpl, PolicyPerScore},
		{OutputDetailed, PolicyPerScore},
	}

	for _, tt := range tests {
		t.Run(string(tt.output), func(t *testing.T) {
			got, err := tt.output.Policy()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := OutputType("xml").Policy()
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestConfusionMatrixTotal(t *testing.T) {
	assert.Equal(t, 10, ConfusionMatrix{TP: 1, FP: 2, FN: 3, TN: 4}.Total())
}
