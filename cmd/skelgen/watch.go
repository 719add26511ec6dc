package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/report"
	"skelgen/internal/watcher"
)

var watchInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Regenerate tests whenever C# sources change",
	Long: `Watch files or directories and regenerate all tests whenever a C# file
is created, modified or removed. Changes are debounced (watch.debounceMs)
and each settled batch triggers one full run. Accepts the same flags as
generate.

Examples:
  skelgen watch src/                   # Watch src/, write tests to the output dir
  skelgen watch --initial src/         # Generate everything once before watching`,
	RunE: runWatch,
}

func init() {
	// watch shares generate's flag variables.
	watchCmd.Flags().AddFlagSet(generateCmd.Flags())
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Generate for all inputs before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := res.Config
	if err := applyGenerateFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return skerrors.Wrap(skerrors.InvalidConfig, "invalid flags", err)
	}

	logger, closer, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	inputs := args
	if len(inputs) == 0 {
		inputs = cfg.Inputs.Paths
	}
	if len(inputs) == 0 {
		return skerrors.New(skerrors.ArgumentFailure, "no inputs: pass files or directories, or set inputs.paths")
	}

	ctx, stop := newContext()
	defer stop()

	g, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ws := &watchSession{gen: g, inputs: inputs}

	if watchInitial {
		rep, err := g.run(ctx, inputs)
		if rep != nil {
			printSummary(out, rep)
		}
		if err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
	}

	w := watcher.New(watcher.Config{
		DebounceMs:     cfg.Watch.DebounceMs,
		Extensions:     []string{sourceExtension},
		IgnorePatterns: cfg.Inputs.Exclude,
	}, logger, func(events []watcher.Event) {
		rep, err := ws.handle(ctx, events)
		if rep != nil {
			printSummary(out, rep)
		}
		if err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
	})
	return w.Run(ctx, inputs)
}

// watchSession re-runs generation over all inputs for each settled batch
// of changes. Batches are serialized; changes to files the generator wrote
// itself do not trigger a run.
type watchSession struct {
	gen    *generator
	inputs []string

	mu sync.Mutex
}

func (s *watchSession) handle(ctx context.Context, events []watcher.Event) (*report.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	relevant := 0
	for _, e := range events {
		if !s.gen.isProduced(e.Path) {
			relevant++
		}
	}
	if relevant == 0 || ctx.Err() != nil {
		return nil, nil
	}

	s.gen.logger.Info("Sources changed, regenerating", "events", relevant)
	return s.gen.run(ctx, s.inputs)
}
