package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

const mockScoreBuckets = 101

// mockProvider answers deterministically without network access. It lets the
// whole pipeline run locally with LLM_API_KEY=mock.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Complete implements Provider interface. Query extraction echoes the first
// words of the text; classification returns a score derived from a hash of the
// last user message.
func (p *mockProvider) Complete(_ context.Context, req Request) (string, error) {
	system, rest := splitSystem(req.Messages)

	var last string
	if len(rest) > 0 {
		last = rest[len(rest)-1].Content
	}

	for _, s := range system {
		if s == extractSystemPrompt {
			return mockQuery(last), nil
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(last))
	score := float64(h.Sum32()%mockScoreBuckets) / float64(mockScoreBuckets-1)

	verdict := "False"
	if score >= 0.5 {
		verdict = "True"
	}

	return fmt.Sprintf(`{"verdict": %q, "score": %.2f}`, verdict, score), nil
}

func mockQuery(text string) string {
	const maxWords = 6

	const marker = "query: "

	if i := strings.Index(text, marker); i >= 0 {
		text = text[i+len(marker):]
	}

	words := strings.Fields(strings.Trim(strings.TrimSpace(text), `"`))
	if len(words) > maxWords {
		words = words[:maxWords]
	}

	return strings.Join(words, " ")
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
