package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"skelgen/internal/analyzer"
	"skelgen/internal/codegen"
	"skelgen/internal/config"
	"skelgen/internal/csharp"
	skerrors "skelgen/internal/errors"
	"skelgen/internal/pipeline"
	"skelgen/internal/slogutil"
	"skelgen/internal/synth"
)

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (*config.LoadResult, error) {
	res, err := config.LoadConfigWithDetails(rootDir)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, skerrors.Wrap(skerrors.InvalidConfig, "invalid configuration", err)
		}
		return nil, skerrors.Wrap(skerrors.InvalidConfig, "failed to load configuration", err)
	}
	return res, nil
}

// newLogger builds the CLI logger. -v/-q win over the configured console
// level and --log-format/--log-file over the configured ones.
func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if quiet || verbosity > 0 {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}
	file := cfg.Logging.File
	if logFile != "" {
		file = logFile
	}

	logger, closer, err := slogutil.New(w, slogutil.Options{
		Level:      level,
		Format:     format,
		File:       file,
		FileLevel:  slogutil.LevelFromString(cfg.Logging.FileLevel),
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, nil, skerrors.Wrap(skerrors.InvalidConfig, "cannot open log file", err)
	}
	return logger, closer, nil
}

func synthOptions(cfg *config.Config) synth.Options {
	return synth.Options{
		FileExtension:     cfg.Generator.FileExtension,
		TestFramework:     cfg.Generator.TestFramework,
		MockFramework:     cfg.Generator.MockFramework,
		FailMarker:        cfg.Generator.FailMarker,
		InvokeVoidMethods: cfg.Generator.InvokeVoidMethods,
		NamespaceDirs:     cfg.Generator.NamespaceDirs,
	}
}

func newSynthesizer(cfg *config.Config) (*synth.Synthesizer, error) {
	if !csharp.IsAvailable() {
		return nil, skerrors.New(skerrors.InternalError, "this build has no C# parser; rebuild with CGO_ENABLED=1")
	}
	a, err := analyzer.New(csharp.NewParser())
	if err != nil {
		return nil, err
	}
	return synth.New(a, codegen.NewPrinter(), synthOptions(cfg))
}

func processParallelism(cfg *config.Config) int {
	if cfg.Pipeline.ProcessParallelism > 0 {
		return cfg.Pipeline.ProcessParallelism
	}
	return pipeline.DefaultProcessParallelism()
}

// printError writes err and, when known, a hint per failure.
func printError(w io.Writer, err error) {
	var agg *skerrors.AggregateError
	if errors.As(err, &agg) {
		fmt.Fprintf(w, "Error: %d unit(s) failed\n", len(agg.Errors))
		for _, e := range agg.Errors {
			fmt.Fprintf(w, "  - %v\n", e)
			printHint(w, e, "    ")
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	printHint(w, err, "  ")
}

func printHint(w io.Writer, err error, indent string) {
	var se *skerrors.SkelgenError
	if !errors.As(err, &se) {
		return
	}
	if hint := skerrors.Hint(se.Code); hint != "" {
		fmt.Fprintf(w, "%sHint: %s\n", indent, hint)
	}
}
