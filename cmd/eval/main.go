// Command eval re-aggregates exported per-row benchmark results and fails when
// a metric falls outside the configured gates.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lueurxax/claim-bench/internal/bench"
	"github.com/lueurxax/claim-bench/internal/core/domain"
	"github.com/lueurxax/claim-bench/internal/dataset"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type gates struct {
	minAccuracy  float64
	minPrecision float64
	minRecall    float64
	minF1        float64
	minRows      int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	fs.SetOutput(stderr)

	inputPath := fs.String("input", "results.jsonl", "Path to exported results JSONL")
	policyFlag := fs.String("policy", string(domain.PolicyPerScore), "Aggregation policy (per_score, majority_vote)")
	iterations := fs.Int("iterations", 0, "Iterations per row (0 infers the largest attempt count)")

	var g gates

	fs.Float64Var(&g.minAccuracy, "min-accuracy", -1, "Fail if accuracy is below this value (disabled if <0)")
	fs.Float64Var(&g.minPrecision, "min-precision", -1, "Fail if precision is below this value (disabled if <0)")
	fs.Float64Var(&g.minRecall, "min-recall", -1, "Fail if recall is below this value (disabled if <0)")
	fs.Float64Var(&g.minF1, "min-f1", -1, "Fail if F1 is below this value (disabled if <0)")
	fs.IntVar(&g.minRows, "min-rows", 0, "Fail if fewer rows were evaluated")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	policy, err := domain.ParseAggregationPolicy(*policyFlag)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open input: %v\n", err)
		return exitFailed
	}
	defer f.Close()

	results, err := dataset.ReadResults(f)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input: %v\n", err)
		return exitFailed
	}

	n := *iterations
	if n <= 0 {
		n = maxAttempts(results)
	}

	summary := bench.ComputeMetrics(results, n, policy)

	printSummary(stdout, summary)

	if failures := g.check(summary); len(failures) > 0 {
		for _, msg := range failures {
			fmt.Fprintln(stderr, msg)
		}

		return exitFailed
	}

	return exitOK
}

func (g gates) check(s domain.Summary) []string {
	var failures []string

	below := func(name string, value, threshold float64) {
		if threshold >= 0 && value < threshold {
			failures = append(failures, fmt.Sprintf("%s %.3f is below threshold %.3f", name, value, threshold))
		}
	}

	below("accuracy", s.Accuracy, g.minAccuracy)
	below("precision", s.Precision, g.minPrecision)
	below("recall", s.Recall, g.minRecall)
	below("f1", s.F1Score, g.minF1)

	if s.RowsEvaluated < g.minRows {
		failures = append(failures, fmt.Sprintf("rows evaluated %d is below minimum %d", s.RowsEvaluated, g.minRows))
	}

	return failures
}

func maxAttempts(results []domain.RowResult) int {
	n := 0

	for _, r := range results {
		n = max(n, r.Attempts())
	}

	return n
}

func printSummary(w io.Writer, s domain.Summary) {
	cm := s.ConfusionMatrix

	fmt.Fprintf(w, "Evaluation Summary\n")
	fmt.Fprintf(w, "  Rows: %d (without attempts: %d)\n", s.RowsEvaluated, s.RowsWithoutAttempts)
	fmt.Fprintf(w, "  Policy: %s, predictions: %d\n", s.Policy, s.TotalPredictions)
	fmt.Fprintf(w, "  Confusion: TP=%d FP=%d FN=%d TN=%d\n", cm.TP, cm.FP, cm.FN, cm.TN)
	fmt.Fprintf(w, "  Accuracy: %.3f\n", s.Accuracy)
	fmt.Fprintf(w, "  Precision: %.3f\n", s.Precision)
	fmt.Fprintf(w, "  Recall: %.3f\n", s.Recall)
	fmt.Fprintf(w, "  F1: %.3f\n", s.F1Score)

	for i, acc := range s.IterationAccuracy {
		fmt.Fprintf(w, "  Iteration %d accuracy: %.3f\n", i+1, acc)
	}
}
