// Package prompts builds the classification prompt for a claim. Prompts come
// from a fixed table keyed by evidence use, prompt variant and output type.
package prompts

import (
	"fmt"
	"strings"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/core/llm"
)

const (
	placeholderClaim    = "{{claim}}"
	placeholderEvidence = "{{evidence}}"
	noEvidenceText      = "(no articles found)"
)

// Key identifies one prompt template.
type Key struct {
	External bool
	Variant  domain.PromptVariant
	Output   domain.OutputType
}

func (k Key) String() string {
	return fmt.Sprintf("external=%t variant=%s output=%s", k.External, k.Variant, k.Output)
}

// Template is a system and user message pair with placeholders.
type Template struct {
	System string
	User   string
}

// Builder renders prompt messages from its table.
type Builder struct {
	table map[Key]Template
}

// NewBuilder returns a Builder over the default prompt table.
func NewBuilder() *Builder {
	return &Builder{table: defaultTable()}
}

// Validate reports whether a template exists for the combination.
func (b *Builder) Validate(useExternal bool, variant domain.PromptVariant, output domain.OutputType) error {
	key := Key{External: useExternal, Variant: variant, Output: output}
	if _, ok := b.table[key]; !ok {
		return fmt.Errorf("%w: no prompt for %s", apperrors.ErrConfiguration, key)
	}

	return nil
}

// Build renders the ordered system and user messages for a claim.
func (b *Builder) Build(statement, evidence string, useExternal bool, variant domain.PromptVariant, output domain.OutputType) ([]llm.Message, error) {
	key := Key{External: useExternal, Variant: variant, Output: output}

	tpl, ok := b.table[key]
	if !ok {
		return nil, fmt.Errorf("%w: no prompt for %s", apperrors.ErrConfiguration, key)
	}

	if strings.TrimSpace(evidence) == "" {
		evidence = noEvidenceText
	}

	r := strings.NewReplacer(placeholderClaim, statement, placeholderEvidence, evidence)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: tpl.System},
		{Role: llm.RoleUser, Content: r.Replace(tpl.User)},
	}, nil
}

// Keys lists every combination the builder supports.
func (b *Builder) Keys() []Key {
	keys := make([]Key, 0, len(b.table))
	for k := range b.table {
		keys = append(keys, k)
	}

	return keys
}
