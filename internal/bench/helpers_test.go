package bench

import (
	"strconv"

	"github.com/lueurxax/claim-bench/internal/core/domain"
)

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func rowResult(gold bool, scores ...float64) domain.RowResult {
	r := domain.RowResult{
		GoldBinary:  gold,
		Predictions: []bool{},
		Scores:      []float64{},
		Correctness: []bool{},
	}

	for _, s := range scores {
		p := s >= passThreshold
		r.Append(domain.Attempt{Predicted: p, Score: s, Correct: p == gold})
	}

	return r
}
