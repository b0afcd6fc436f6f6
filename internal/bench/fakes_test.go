package bench

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/core/llm"
)

const (
	stmtReal = "The river flooded the town in 2021"
	stmtFake = "The moon is made of cheese"
	query    = "search query"
)

var (
	testModels = domain.ModelSet{Extract: "extract-model", Classify: "classify-model", Research: "research-model", Summary: "summary-model"}

	errSearchDown = errors.New("search down")
	errModelDown  = errors.New("model down")
)

type extractorMock struct{ mock.Mock }

func (m *extractorMock) ExtractQuery(ctx context.Context, model, text string) (string, error) {
	args := m.Called(ctx, model, text)
	return args.String(0), args.Error(1)
}

type evidenceMock struct{ mock.Mock }

func (m *evidenceMock) Fetch(ctx context.Context, q, statement string, enabled bool, models domain.ModelSet) (string, error) {
	args := m.Called(ctx, q, statement, enabled, models)
	return args.String(0), args.Error(1)
}

// stubBuilder renders the statement as the only user message and records the
// evidence it was given per statement.
type stubBuilder struct {
	mu          sync.Mutex
	evidence    map[string]string
	buildErr    error
	validateErr error
}

func newStubBuilder() *stubBuilder {
	return &stubBuilder{evidence: make(map[string]string)}
}

func (b *stubBuilder) Validate(bool, domain.PromptVariant, domain.OutputType) error {
	return b.validateErr
}

func (b *stubBuilder) Build(statement, evidence string, _ bool, _ domain.PromptVariant, _ domain.OutputType) ([]llm.Message, error) {
	if b.buildErr != nil {
		return nil, b.buildErr
	}

	b.mu.Lock()
	b.evidence[statement] = evidence
	b.mu.Unlock()

	return []llm.Message{{Role: llm.RoleUser, Content: statement}}, nil
}

func (b *stubBuilder) evidenceFor(statement string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev, ok := b.evidence[statement]

	return ev, ok
}

// scriptedCaller answers per statement. reply receives the zero-based call
// index for that statement.
type scriptedCaller struct {
	mu    sync.Mutex
	calls map[string]int
	reply func(statement string, call int) (string, error)
}

func newScriptedCaller(reply func(statement string, call int) (string, error)) *scriptedCaller {
	return &scriptedCaller{calls: make(map[string]int), reply: reply}
}

func fixedReplies(replies map[string]string) *scriptedCaller {
	return newScriptedCaller(func(statement string, _ int) (string, error) {
		return replies[statement], nil
	})
}

func (c *scriptedCaller) Classify(_ context.Context, model string, messages []llm.Message) (string, error) {
	if model != testModels.Classify {
		return "", errors.New("unexpected model " + model)
	}

	statement := messages[len(messages)-1].Content

	c.mu.Lock()
	n := c.calls[statement]
	c.calls[statement] = n + 1
	c.mu.Unlock()

	return c.reply(statement, n)
}

func (c *scriptedCaller) callCount(statement string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[statement]
}

func okExtractor() *extractorMock {
	m := &extractorMock{}
	m.On("ExtractQuery", mock.Anything, testModels.Extract, mock.Anything).Return(query, nil)

	return m
}

func noEvidence() *evidenceMock {
	return &evidenceMock{}
}

func testRows() []domain.ClaimRow {
	return []domain.ClaimRow{
		domain.NewClaimRow(stmtReal, 5),
		domain.NewClaimRow(stmtFake, 2),
	}
}

func testParams(output domain.OutputType, iterations int) domain.JobParams {
	return domain.JobParams{
		PromptVariant:   domain.PromptVariantDefault,
		OutputType:      output,
		Iterations:      iterations,
		RetrievalPolicy: domain.RetrievalStrict,
		Models:          testModels,
	}
}

var errConfigBroken = errors.Join(apperrors.ErrConfiguration, errors.New("template missing"))
