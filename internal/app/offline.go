package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lueurxax/claim-bench/internal/bench"
	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/dataset"
)

const (
	summaryFileName = "summary.json"
	resultsFileName = "results.jsonl"
	outputDirPerm   = 0o755
)

// BenchOptions configures an offline benchmark run.
type BenchOptions struct {
	DatasetPath string
	OutputDir   string
	Params      bench.ParamsRequest
}

// RunBench evaluates a local dataset and writes summary.json and results.jsonl
// into OutputDir. Partial results are written when ctx is cancelled; a run
// without a single usable row writes nothing.
func (a *App) RunBench(ctx context.Context, opts BenchOptions) (*domain.Summary, error) {
	service := a.newService(ctx)

	params, err := service.NewParams(opts.Params)
	if err != nil {
		return nil, err
	}

	rows, err := readDataset(opts.DatasetPath)
	if err != nil {
		return nil, err
	}

	a.logger.Info().
		Str("dataset", opts.DatasetPath).
		Int("rows", len(rows)).
		Int("iterations", params.Iterations).
		Str("output_type", string(params.OutputType)).
		Bool("external", params.UseExternalInfo).
		Msg("Starting bench mode")

	summary, results, runErr := service.Evaluate(ctx, rows, params)
	if errors.Is(runErr, apperrors.ErrNoUsableRows) {
		return nil, runErr
	}

	if err := writeBenchOutput(opts.OutputDir, summary, results); err != nil {
		return nil, err
	}

	if runErr != nil {
		return &summary, runErr
	}

	a.logger.Info().
		Float64("accuracy", summary.Accuracy).
		Float64("f1", summary.F1Score).
		Int("rows_evaluated", summary.RowsEvaluated).
		Float64("duration_seconds", summary.DurationSeconds).
		Msg("Benchmark finished")

	return &summary, nil
}

// RunCurves computes curves for one or more exported results files and writes
// them as JSON to w. Each file is labelled with its base name.
func (a *App) RunCurves(paths []string, opts bench.CurveOptions, w io.Writer) error {
	if len(paths) == 0 || len(paths) > bench.MaxCompareSets {
		return fmt.Errorf("%w: between 1 and %d results files are required, got %d",
			apperrors.ErrInvalidInput, bench.MaxCompareSets, len(paths))
	}

	all := make([]domain.Curves, 0, len(paths))

	for _, p := range paths {
		results, err := readResults(p)
		if err != nil {
			return err
		}

		curves := bench.ComputeCurves(results, opts)
		curves.JobID = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))

		all = append(all, curves)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	var payload any = all
	if len(all) == 1 {
		payload = all[0]
	}

	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("write curves: %w", err)
	}

	return nil
}

func readDataset(path string) ([]domain.ClaimRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open dataset: %w", apperrors.ErrInvalidInput, err)
	}
	defer f.Close()

	return dataset.Read(f, dataset.FormatFromName(path))
}

func readResults(path string) ([]domain.RowResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open results: %w", apperrors.ErrInvalidInput, err)
	}
	defer f.Close()

	return dataset.ReadResults(f)
}

func writeBenchOutput(dir string, summary domain.Summary, results []domain.RowResult) (err error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, outputDirPerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, summaryFileName), payload, 0o644); err != nil { //nolint:gosec // output is not secret
		return fmt.Errorf("write summary: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, resultsFileName))
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return dataset.WriteResults(f, results)
}
