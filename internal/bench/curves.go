package bench

import (
	"math"
	"sort"

	"github.com/lueurxax/claim-bench/internal/core/domain"
)

// MaxCompareSets is the largest number of result sets overlaid in one comparison.
const MaxCompareSets = 3

// CurveOptions controls how row results are flattened into curve samples.
type CurveOptions struct {
	// FirstScoreOnly uses one sample per row (its first attempt) instead of
	// every attempt.
	FirstScoreOnly bool
}

type curveSample struct {
	fake  bool
	score float64
}

// ComputeCurves builds ROC and PR curves for detecting fakes. Labels and scores
// are inverted relative to the stored values: the class of interest is
// gold=false and the stored score is confidence toward "true".
func ComputeCurves(results []domain.RowResult, opts CurveOptions) domain.Curves {
	samples := curveSamples(results, opts)

	roc, pr := buildCurves(samples)

	return domain.Curves{
		Samples: len(samples),
		ROC:     roc,
		ROCAUC:  trapezoid(roc),
		PR:      pr,
		PRAUC:   trapezoid(pr),
	}
}

func curveSamples(results []domain.RowResult, opts CurveOptions) []curveSample {
	var samples []curveSample

	for _, r := range results {
		scores := r.Scores
		if opts.FirstScoreOnly && len(scores) > 1 {
			scores = scores[:1]
		}

		for _, s := range scores {
			if math.IsNaN(s) {
				continue
			}

			samples = append(samples, curveSample{fake: !r.GoldBinary, score: 1 - s})
		}
	}

	// Descending by score; stable keeps equal scores in input order.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].score > samples[j].score
	})

	return samples
}

// buildCurves walks every distinct threshold from the highest score down.
// ROC starts at (0, 0); PR is returned in decreasing-recall order and ends at
// (recall 0, precision 1). Zero denominators yield 0.
func buildCurves(samples []curveSample) ([]domain.CurvePoint, []domain.CurvePoint) {
	positives, negatives := 0, 0

	for _, s := range samples {
		if s.fake {
			positives++
		} else {
			negatives++
		}
	}

	start := 1.0
	if len(samples) > 0 {
		start = samples[0].score + 1
	}

	roc := []domain.CurvePoint{{X: 0, Y: 0, Threshold: start}}

	var pr []domain.CurvePoint

	tp, fp := 0, 0

	for i := 0; i < len(samples); {
		threshold := samples[i].score

		for ; i < len(samples) && samples[i].score == threshold; i++ {
			if samples[i].fake {
				tp++
			} else {
				fp++
			}
		}

		roc = append(roc, domain.CurvePoint{
			X:         ratio(fp, negatives),
			Y:         ratio(tp, positives),
			Threshold: threshold,
		})

		pr = append(pr, domain.CurvePoint{
			X:         ratio(tp, positives),
			Y:         ratio(tp, tp+fp),
			Threshold: threshold,
		})
	}

	// Walked from high to low threshold, recall is non-decreasing; flip it.
	for l, r := 0, len(pr)-1; l < r; l, r = l+1, r-1 {
		pr[l], pr[r] = pr[r], pr[l]
	}

	pr = append(pr, domain.CurvePoint{X: 0, Y: 1, Threshold: start})

	return roc, pr
}

// trapezoid integrates y over x along the point sequence. The sequence must be
// monotonic in x; the sign of the direction is discarded.
func trapezoid(points []domain.CurvePoint) float64 {
	area := 0.0

	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		area += dx * (points[i].Y + points[i-1].Y) / 2
	}

	return math.Abs(area)
}
