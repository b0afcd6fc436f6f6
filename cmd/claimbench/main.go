package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/app"
	"github.com/lueurxax/claim-bench/internal/bench"
	"github.com/lueurxax/claim-bench/internal/platform/config"
	db "github.com/lueurxax/claim-bench/internal/storage"
)

const (
	modeServer = "server"
	modeWorker = "worker"
	modeAll    = "all"
	modeBench  = "bench"
	modeCurves = "curves"
)

var errDatasetRequired = errors.New("bench mode requires --dataset")

type flags struct {
	mode            string
	datasetPath     string
	outputDir       string
	resultsPaths    string
	useExternalInfo bool
	promptVariant   string
	outputType      string
	iterations      int
	retrievalPolicy string
	firstScoreOnly  bool
}

func main() {
	var f flags

	flag.StringVar(&f.mode, "mode", "", "Service mode (server, worker, all, bench, curves)")
	flag.StringVar(&f.datasetPath, "dataset", "", "Dataset file for bench mode (.csv or .jsonl)")
	flag.StringVar(&f.outputDir, "out", ".", "Output directory for bench mode")
	flag.StringVar(&f.resultsPaths, "results", "", "Comma-separated results JSONL files for curves mode")
	flag.BoolVar(&f.useExternalInfo, "external", false, "Retrieve news evidence (bench mode)")
	flag.StringVar(&f.promptVariant, "prompt-variant", "default", "Prompt variant (default, short)")
	flag.StringVar(&f.outputType, "output-type", "binary", "Output type (binary, score, binary_expl, score_expl, detailed)")
	flag.IntVar(&f.iterations, "iterations", 1, "Classification attempts per row")
	flag.StringVar(&f.retrievalPolicy, "retrieval-policy", "", "Evidence failure policy (strict, lenient)")
	flag.BoolVar(&f.firstScoreOnly, "first-score-only", false, "Use only the first attempt per row for curves")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB

	if needsDatabase(f.mode) {
		database = connect(ctx, cfg, &logger)
		defer database.Close()
	}

	application := app.New(cfg, database, &logger)
	defer application.Close()

	if err := runMode(ctx, application, f); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == config.AppEnvLocal {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func needsDatabase(mode string) bool {
	return mode == modeServer || mode == modeWorker || mode == modeAll
}

func connect(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *db.DB {
	poolOpts := db.DefaultPoolOptions()
	poolOpts.MaxConns = cfg.DBMaxConnections
	poolOpts.MinConns = cfg.DBMinConnections

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	return database
}

func runMode(ctx context.Context, application *app.App, f flags) error {
	switch f.mode {
	case modeServer:
		return application.RunServer(ctx)
	case modeWorker:
		return application.RunWorker(ctx)
	case modeAll:
		return application.RunAll(ctx)
	case modeBench:
		if f.datasetPath == "" {
			return errDatasetRequired
		}

		_, err := application.RunBench(ctx, app.BenchOptions{
			DatasetPath: f.datasetPath,
			OutputDir:   f.outputDir,
			Params: bench.ParamsRequest{
				UseExternalInfo: f.useExternalInfo,
				PromptVariant:   f.promptVariant,
				OutputType:      f.outputType,
				Iterations:      f.iterations,
				RetrievalPolicy: f.retrievalPolicy,
			},
		})

		return err
	case modeCurves:
		paths := strings.Split(f.resultsPaths, ",")
		if f.resultsPaths == "" {
			paths = nil
		}

		return application.RunCurves(paths, bench.CurveOptions{FirstScoreOnly: f.firstScoreOnly}, os.Stdout)
	default:
		log.Fatalf("Usage: %s --mode=[server|worker|all|bench|curves]", os.Args[0])

		return nil
	}
}
