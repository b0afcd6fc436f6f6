package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/core/llm"
)

const testClaim = "The Eiffel Tower is in Berlin."

func TestBuilderCoversTable(t *testing.T) {
	b := NewBuilder()

	// 2 evidence modes x (5 default outputs + 4 short outputs).
	assert.Len(t, b.Keys(), 18)

	for _, k := range b.Keys() {
		t.Run(k.String(), func(t *testing.T) {
			msgs, err := b.Build(testClaim, "Article 1: Paris landmark.", k.External, k.Variant, k.Output)
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, llm.RoleSystem, msgs[0].Role)
			assert.Equal(t, llm.RoleUser, msgs[1].Role)
			assert.Contains(t, msgs[1].Content, testClaim)
			assert.NotContains(t, msgs[1].Content, placeholderClaim)
			assert.NotContains(t, msgs[1].Content, placeholderEvidence)

			if k.External {
				assert.Contains(t, msgs[1].Content, "Article 1: Paris landmark.")
			} else {
				assert.NotContains(t, msgs[1].Content, "Article 1")
			}
		})
	}
}

func TestBuilderOutputFormats(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		output  domain.OutputType
		want    []string
		missing []string
	}{
		{output: domain.OutputBinary, want: []string{`"verdict"`}, missing: []string{`"score"`, `"explanation"`}},
		{output: domain.OutputScore, want: []string{`"score"`}, missing: []string{`"verdict"`, `"explanation"`}},
		{output: domain.OutputBinaryExpl, want: []string{`"verdict"`, `"explanation"`}, missing: []string{`"score"`}},
		{output: domain.OutputScoreExpl, want: []string{`"score"`, `"explanation"`}, missing: []string{`"verdict"`}},
		{output: domain.OutputDetailed, want: []string{`"verdict"`, `"score"`, `"key_points"`}},
	}

	for _, tt := range tests {
		t.Run(string(tt.output), func(t *testing.T) {
			msgs, err := b.Build(testClaim, "", false, domain.PromptVariantDefault, tt.output)
			require.NoError(t, err)

			for _, w := range tt.want {
				assert.Contains(t, msgs[0].Content, w)
			}

			for _, m := range tt.missing {
				assert.NotContains(t, msgs[0].Content, m)
			}
		})
	}
}

func TestBuilderShortIsShorter(t *testing.T) {
	b := NewBuilder()

	long, err := b.Build(testClaim, "", true, domain.PromptVariantDefault, domain.OutputScore)
	require.NoError(t, err)

	short, err := b.Build(testClaim, "", true, domain.PromptVariantShort, domain.OutputScore)
	require.NoError(t, err)

	assert.Less(t, len(short[0].Content)+len(short[1].Content), len(long[0].Content)+len(long[1].Content))
	assert.True(t, strings.HasPrefix(short[0].Content, "You are a fact-checking assistant."))
}

func TestBuilderEmptyEvidence(t *testing.T) {
	msgs, err := NewBuilder().Build(testClaim, "  ", true, domain.PromptVariantShort, domain.OutputBinary)
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, noEvidenceText)
}

func TestBuilderUnknownCombination(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		name    string
		variant domain.PromptVariant
		output  domain.OutputType
	}{
		{name: "short detailed", variant: domain.PromptVariantShort, output: domain.OutputDetailed},
		{name: "unknown output", variant: domain.PromptVariantDefault, output: domain.OutputType("xml")},
		{name: "unknown variant", variant: domain.PromptVariant("medium"), output: domain.OutputBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(testClaim, "", false, tt.variant, tt.output)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
			assert.ErrorIs(t, b.Validate(false, tt.variant, tt.output), apperrors.ErrConfiguration)
		})
	}
}

func TestBuilderClaimIsNotReexpanded(t *testing.T) {
	msgs, err := NewBuilder().Build("see {{evidence}}", "E", true, domain.PromptVariantShort, domain.OutputBinary)
	require.NoError(t, err)
	assert.Contains(t, msgs[1].Content, "see {{evidence}}")
}
