package bench

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// passThreshold splits a confidence score into a binary verdict.
const passThreshold = 0.5

var bareScoreRe = regexp.MustCompile(`\b(?:0(?:\.\d+)?|1(?:\.0+)?)\b`)

type modelOutput struct {
	Score   *json.Number `json:"score"`
	Verdict *string      `json:"verdict"`
}

// ParseOutput turns a raw model response into a verdict and a confidence score
// toward "true". It never fails: an unrecognizable response is a false verdict
// with zero confidence.
func ParseOutput(raw string) (bool, float64) {
	text := strings.TrimSpace(raw)

	if predicted, score, ok := parseJSONOutput(text); ok {
		return predicted, score
	}

	lower := strings.ToLower(text)
	hasTrue := strings.Contains(lower, "true")
	hasFalse := strings.Contains(lower, "false")

	switch {
	case hasTrue && !hasFalse:
		return true, 1.0
	case hasFalse && !hasTrue:
		return false, 0.0
	}

	if m := bareScoreRe.FindString(lower); m != "" {
		if score, err := strconv.ParseFloat(m, 64); err == nil {
			return score >= passThreshold, score
		}
	}

	return false, 0.0
}

// parseJSONOutput only accepts a response that is a JSON object as a whole.
// Prose around an object, markdown fences included, goes to the text fallback.
func parseJSONOutput(text string) (bool, float64, bool) {
	var out modelOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return false, 0, false
	}

	if out.Score != nil {
		if score, err := out.Score.Float64(); err == nil {
			return score >= passThreshold, score, true
		}
	}

	if out.Verdict != nil {
		if strings.ToLower(strings.TrimSpace(*out.Verdict)) == "true" {
			return true, 1.0, true
		}

		return false, 0.0, true
	}

	return false, 0, false
}
