package bench

import (
	"math"

	"github.com/lueurxax/claim-bench/internal/core/domain"
)

// HistogramBins is the number of fixed-width score histogram bins over [0, 1].
const HistogramBins = 10

type pair struct {
	gold      bool
	predicted bool
}

// ComputeMetrics aggregates row results into a Summary under policy. Rows
// without attempts are excluded from every aggregate and only counted in
// RowsWithoutAttempts. Every field is populated for empty input.
func ComputeMetrics(results []domain.RowResult, iterations int, policy domain.AggregationPolicy) domain.Summary {
	if iterations < 0 {
		iterations = 0
	}

	var (
		pairs       []pair
		scores      []float64
		iterCorrect = make([]int, iterations)
		iterTotal   = make([]int, iterations)
		evaluated   int
		skipped     int
	)

	for _, r := range results {
		n := r.Attempts()
		if n == 0 {
			skipped++

			continue
		}

		evaluated++

		scores = append(scores, r.Scores...)

		for i := 0; i < n && i < iterations; i++ {
			iterTotal[i]++

			if i < len(r.Correctness) && r.Correctness[i] {
				iterCorrect[i]++
			}
		}

		switch policy {
		case domain.PolicyMajorityVote:
			pairs = append(pairs, pair{gold: r.GoldBinary, predicted: majorityVote(r.Predictions)})
		case domain.PolicyPerScore:
			for _, s := range r.Scores {
				pairs = append(pairs, pair{gold: r.GoldBinary, predicted: s >= passThreshold})
			}
		}
	}

	cm := confusion(pairs)

	summary := domain.Summary{
		ConfusionMatrix:     cm,
		ScoreHistogram:      histogram(scores),
		IterationAccuracy:   make([]float64, iterations),
		TotalPredictions:    len(pairs),
		Policy:              policy,
		RowsEvaluated:       evaluated,
		RowsWithoutAttempts: skipped,
	}

	for i := range iterations {
		summary.IterationAccuracy[i] = ratio(iterCorrect[i], iterTotal[i])
	}

	summary.Accuracy = ratio(cm.TP+cm.TN, len(pairs))
	summary.Precision = ratio(cm.TP, cm.TP+cm.FP)
	summary.Recall = ratio(cm.TP, cm.TP+cm.FN)

	if summary.Precision+summary.Recall > 0 {
		summary.F1Score = 2 * summary.Precision * summary.Recall / (summary.Precision + summary.Recall)
	}

	return summary
}

// majorityVote is a strict majority over the attempted predictions; ties are false.
func majorityVote(predictions []bool) bool {
	trues := 0

	for _, p := range predictions {
		if p {
			trues++
		}
	}

	return trues*2 > len(predictions)
}

// confusion counts pairs with "false/fake" as the positive class.
func confusion(pairs []pair) domain.ConfusionMatrix {
	var cm domain.ConfusionMatrix

	for _, p := range pairs {
		switch {
		case !p.gold && !p.predicted:
			cm.TP++
		case !p.gold && p.predicted:
			cm.FN++
		case p.gold && !p.predicted:
			cm.FP++
		default:
			cm.TN++
		}
	}

	return cm
}

// histogram bins scores into HistogramBins equal-width bins over [0, 1].
// Out-of-range scores are clamped into the edge bins, 1.0 falls into the last
// bin and NaN counts into the first one.
func histogram(scores []float64) domain.ScoreHistogram {
	h := domain.ScoreHistogram{
		BinEdges: make([]float64, HistogramBins+1),
		Counts:   make([]int, HistogramBins),
	}

	for i := range h.BinEdges {
		h.BinEdges[i] = float64(i) / HistogramBins
	}

	for _, s := range scores {
		h.Counts[histogramBin(s)]++
	}

	return h
}

func histogramBin(score float64) int {
	if math.IsNaN(score) || score <= 0 {
		return 0
	}

	if score >= 1 {
		return HistogramBins - 1
	}

	bin := int(score * HistogramBins)
	if bin >= HistogramBins {
		bin = HistogramBins - 1
	}

	return bin
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}

	return float64(num) / float64(den)
}
