package prompts

import (
	"strings"

	"github.com/lueurxax/claim-bench/internal/core/domain"
)

// Output format blocks.
const (
	formatVerdict = "{\n  \"verdict\": \"True\"|\"False\"\n}"
	formatScore   = "{\n  \"score\": <float between 0 and 1>\n}"

	formatVerdictExpl = "{\n  \"verdict\": \"True\"|\"False\",\n  \"explanation\": \"...\"\n}"
	formatScoreExpl   = "{\n  \"score\": <float between 0 and 1>,\n  \"explanation\": \"...\"\n}"
	formatDetailed    = "{\n  \"verdict\": \"True\"|\"False\",\n  \"score\": <float between 0 and 1>,\n" +
		"  \"explanation\": \"...\",\n  \"key_points\": [\"...\"]\n}"
)

type sourceText struct {
	basis     string
	claimPart string
	steps     []string
}

var (
	internalSource = sourceText{
		basis:     "using both the information in the claim and your own internal knowledge",
		claimPart: "Claim:\n\"" + placeholderClaim + "\"\n\n",
		steps:     []string{
			"Identify the main assertion of the claim.",
			"Check it against what you reliably know, without inventing evidence.",
			"Note which facts or data you rely on beyond the claim itself.",
		},
	}

	externalSource = sourceText{
		basis:     "using only the articles from trusted sources provided below",
		claimPart: "Claim:\n\"" + placeholderClaim + "\"\n\n" +
			"Articles from trusted sources:\n" + placeholderEvidence + "\n\n",
		steps: []string{
			"Identify the main factual assertion of the claim.",
			"Check whether the articles support, contradict or ignore it.",
			"Weigh the credibility and consistency of the sources. Do not speculate beyond them.",
		},
	}
)

type outputText struct {
	task     string
	conclude string
	format   string
	explain  bool
}

var outputs = map[domain.OutputType]outputText{
	domain.OutputBinary: {
		task:     "decide whether the claim is true or false",
		conclude: "Conclude whether the claim is true or false.",
		format:   formatVerdict,
	},
	domain.OutputScore: {
		task:     "rate from 0 (completely false) to 1 (completely true) how well the claim holds",
		conclude: "Rate from 0 (completely false) to 1 (completely true) how well the claim holds.",
		format:   formatScore,
	},
	domain.OutputBinaryExpl: {
		task:     "decide whether the claim is true or false and explain why",
		conclude: "Conclude whether the claim is true or false and explain your reasoning briefly.",
		format:   formatVerdictExpl,
		explain:  true,
	},
	domain.OutputScoreExpl: {
		task:     "rate from 0 (completely false) to 1 (completely true) how well the claim holds and explain why",
		conclude: "Rate from 0 (completely false) to 1 (completely true) how well the claim holds and explain your reasoning briefly.",
		format:   formatScoreExpl,
		explain:  true,
	},
	domain.OutputDetailed: {
		task: "give a verdict, a confidence score from 0 (completely false) to 1 (completely true), " +
			"an explanation and the key points your decision rests on",
		conclude: "Give the verdict, the score, a short explanation and the key points you relied on.",
		format:   formatDetailed,
		explain:  true,
	},
}

// defaultTable composes every supported combination. The detailed output has
// no short variant.
func defaultTable() map[Key]Template {
	table := make(map[Key]Template)

	for _, external := range []bool{false, true} {
		src := internalSource
		if external {
			src = externalSource
		}

		for output, out := range outputs {
			table[Key{External: external, Variant: domain.PromptVariantDefault, Output: output}] = longTemplate(src, out)

			if output != domain.OutputDetailed {
				table[Key{External: external, Variant: domain.PromptVariantShort, Output: output}] = shortTemplate(src, out)
			}
		}
	}

	return table
}

func shortTemplate(src sourceText, out outputText) Template {
	system := "You are a fact-checking assistant.\n" +
		"Given a claim, " + out.task + ", " + src.basis + ".\n" +
		"Reply ONLY in this JSON format:\n" + out.format + "\n"

	user := src.claimPart +
		capitalize(out.task) + ", " + src.basis + ".\n" +
		"Reply ONLY in this JSON format:\n" + out.format + "\n"

	return Template{System: system, User: user}
}

func longTemplate(src sourceText, out outputText) Template {
	var sb strings.Builder

	sb.WriteString("You are an expert fact-checking assistant.\n")
	sb.WriteString("Your task is to analyze a given claim " + src.basis + ", and to " + out.task + ".\n")
	sb.WriteString("Reason step by step before answering.\n")

	if !out.explain {
		sb.WriteString("Do not include any explanation in the output.\n")
	}

	sb.WriteString("\nOutput (exact JSON):\n" + out.format + "\n")

	system := sb.String()

	sb.Reset()
	sb.WriteString(src.claimPart)
	sb.WriteString("Analyze the claim " + src.basis + ".\n\n")

	for _, step := range src.steps {
		sb.WriteString("- " + step + "\n")
	}

	sb.WriteString("- " + out.conclude + "\n")
	sb.WriteString("\nOutput (exact JSON):\n" + out.format + "\n")
	sb.WriteString("\nDo NOT include anything outside this JSON.\n")

	return Template{System: system, User: sb.String()}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
