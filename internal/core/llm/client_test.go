package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

func TestCallerClassify(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, reply: `{"verdict":"True"}`}
	caller := NewCaller(p)

	msgs := []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "claim"}}

	got, err := caller.Classify(context.Background(), "gpt-4o", msgs)
	require.NoError(t, err)
	assert.Equal(t, `{"verdict":"True"}`, got)

	require.Len(t, p.requests, 1)
	assert.Equal(t, "gpt-4o", p.requests[0].Model)
	assert.Equal(t, msgs, p.requests[0].Messages)
	assert.Equal(t, classifyMaxTokens, p.requests[0].MaxTokens)
}

func TestCallerClassifyErrorsAreCallErrors(t *testing.T) {
	failing := NewCaller(&fakeProvider{name: ProviderOpenAI, available: true, err: errProviderDown})

	_, err := failing.Classify(context.Background(), "gpt-4o", nil)
	assert.ErrorIs(t, err, apperrors.ErrCall)
	assert.ErrorIs(t, err, errProviderDown)

	empty := NewCaller(&fakeProvider{name: ProviderOpenAI, available: true, reply: "  "})

	_, err = empty.Classify(context.Background(), "gpt-4o", nil)
	assert.ErrorIs(t, err, apperrors.ErrCall)
	assert.ErrorIs(t, err, apperrors.ErrEmptyResponse)
}

func TestQueryExtractor(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, reply: ` "moon landing 1969 hoax" `}
	ex := NewQueryExtractor(p)

	got, err := ex.ExtractQuery(context.Background(), "gpt-4o-mini", "The moon landing in 1969 was faked!!")
	require.NoError(t, err)
	assert.Equal(t, "moon landing 1969 hoax", got)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, extractMaxTokens, req.MaxTokens)
	assert.InDelta(t, extractTemperature, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, extractSystemPrompt, req.Messages[0].Content)
	assert.True(t, strings.Contains(req.Messages[1].Content, "The moon landing in 1969 was faked!!"))
}

func TestQueryExtractorFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		text     string
	}{
		{name: "empty input", provider: &fakeProvider{available: true, reply: "q"}, text: "   "},
		{name: "provider error", provider: &fakeProvider{available: true, err: errProviderDown}, text: "claim"},
		{name: "empty reply", provider: &fakeProvider{available: true, reply: `""`}, text: "claim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQueryExtractor(tt.provider).ExtractQuery(context.Background(), "gpt-4o", tt.text)
			assert.ErrorIs(t, err, apperrors.ErrExtraction)
		})
	}
}

func TestMockProviderIsDeterministic(t *testing.T) {
	p := NewMockProvider()
	req := Request{Messages: []Message{{Role: RoleUser, Content: "Claim: water is wet"}}}

	a, err := p.Complete(context.Background(), req)
	require.NoError(t, err)

	b, err := p.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Contains(t, a, `"score"`)

	q, err := NewQueryExtractor(p).ExtractQuery(context.Background(), "mock", "one two three four five six seven eight")
	require.NoError(t, err)
	assert.Equal(t, "one two three four five six", q)
}
