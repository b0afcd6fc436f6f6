package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/claim-bench/internal/core/domain"
	"github.com/lueurxax/claim-bench/internal/dataset"
)

func writeResults(t *testing.T, results []domain.RowResult) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "results.jsonl")

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, dataset.WriteResults(f, results))
	require.NoError(t, f.Close())

	return path
}

var perfectRows = []domain.RowResult{
	{Statement: "real", GoldBinary: true, Predictions: []bool{true}, Scores: []float64{0.9}, Correctness: []bool{true}},
	{Statement: "fake", GoldBinary: false, Predictions: []bool{false}, Scores: []float64{0.1}, Correctness: []bool{true}},
}

func TestRun_PassesGates(t *testing.T) {
	path := writeResults(t, perfectRows)

	var stdout, stderr bytes.Buffer

	code := run([]string{"-input", path, "-min-accuracy", "0.9", "-min-f1", "0.9", "-min-rows", "2"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Accuracy: 1.000")
	assert.Contains(t, stdout.String(), "Confusion: TP=1 FP=0 FN=0 TN=1")
}

func TestRun_FailsGate(t *testing.T) {
	rows := append([]domain.RowResult{}, perfectRows...)
	rows = append(rows, domain.RowResult{
		Statement: "missed fake", GoldBinary: false,
		Predictions: []bool{true}, Scores: []float64{0.8}, Correctness: []bool{false},
	})
	path := writeResults(t, rows)

	var stdout, stderr bytes.Buffer

	code := run([]string{"-input", path, "-min-recall", "0.9"}, &stdout, &stderr)

	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stderr.String(), "recall 0.500 is below threshold 0.900")
}

func TestRun_InfersIterations(t *testing.T) {
	path := writeResults(t, []domain.RowResult{
		{Statement: "a", GoldBinary: true, Predictions: []bool{true, true, false}, Scores: []float64{0.9, 0.8, 0.2}, Correctness: []bool{true, true, false}},
		{Statement: "b", GoldBinary: false, Predictions: []bool{false}, Scores: []float64{0.1}, Correctness: []bool{true}},
	})

	var stdout, stderr bytes.Buffer

	code := run([]string{"-input", path, "-policy", "majority_vote"}, &stdout, &stderr)

	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "Iteration 3 accuracy: 0.000")
	assert.Contains(t, stdout.String(), "Policy: majority_vote, predictions: 2")
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, exitUsage, run([]string{"-policy", "median"}, &stdout, &stderr))
	assert.Equal(t, exitUsage, run([]string{"-unknown-flag"}, &stdout, &stderr))
	assert.Equal(t, exitFailed, run([]string{"-input", filepath.Join(t.TempDir(), "missing.jsonl")}, &stdout, &stderr))
}
