package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"skelgen/internal/config"
	"skelgen/internal/csharp"
	"skelgen/internal/discover"
	skerrors "skelgen/internal/errors"
	"skelgen/internal/fileio"
	"skelgen/internal/paths"
	"skelgen/internal/pipeline"
	"skelgen/internal/report"
)

// sourceExtension selects inputs when walking directories.
const sourceExtension = csharp.Extension

var (
	genOut           string
	genRead          int
	genProcess       int
	genWrite         int
	genQueue         int
	genFailFast      bool
	genInvokeVoid    bool
	genNamespaceDirs bool
	genReport        string
	genExclude       []string
)

var generateCmd = &cobra.Command{
	Use:     "generate [paths...]",
	Aliases: []string{"gen"},
	Short:   "Generate test skeletons for C# sources",
	Long: `Generate MSTest + Moq test skeletons for every class in the given C#
files or directories. Directories are walked recursively; bin, obj and
hidden directories are skipped. With no arguments the inputs.paths from the
configuration are used.

Each class produces <Class>Test.cs below --out. Files whose generation
fails are reported at the end; the rest are still written.

Examples:
  skelgen generate src/                     # All C# files under src/
  skelgen generate --out tests/ Cart.cs     # One file, tests go to tests/
  skelgen generate --process 8 --fail-fast  # Stop admitting work on first failure
  skelgen generate --report run.yaml src/   # Also write a YAML run report`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genOut, "out", "o", "", "Output directory for generated tests")
	f.IntVar(&genRead, "read", 0, "Read workers")
	f.IntVar(&genProcess, "process", 0, "Generation workers, at least 1 (default one per CPU)")
	f.IntVar(&genWrite, "write", 0, "Write workers")
	f.IntVar(&genQueue, "queue", 0, "Capacity of the queues between stages")
	f.BoolVar(&genFailFast, "fail-fast", false, "Stop admitting new inputs after the first failure")
	f.BoolVar(&genInvokeVoid, "invoke-void", true, "Call void methods in their tests")
	f.BoolVar(&genNamespaceDirs, "namespace-dirs", false, "Place each test under a directory per namespace segment")
	f.StringVar(&genReport, "report", "", "Write a run report (.json, .yaml or .toml)")
	f.StringSliceVar(&genExclude, "exclude", nil, "Exclude glob, relative to each input directory (repeatable)")
	rootCmd.AddCommand(generateCmd)
}

// applyGenerateFlags copies explicitly set flags over the configuration.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Output.Dir = genOut
	}
	if f.Changed("read") {
		cfg.Pipeline.ReadParallelism = genRead
	}
	if f.Changed("process") {
		// 0 in the config file selects one worker per CPU; on the command
		// line an explicit count is required.
		if genProcess < 1 {
			return skerrors.Newf(skerrors.InvalidConfig, "--process must be at least 1, got %d", genProcess)
		}
		cfg.Pipeline.ProcessParallelism = genProcess
	}
	if f.Changed("write") {
		cfg.Pipeline.WriteParallelism = genWrite
	}
	if f.Changed("queue") {
		cfg.Pipeline.QueueSize = genQueue
	}
	if f.Changed("fail-fast") {
		cfg.Pipeline.FailFast = genFailFast
	}
	if f.Changed("invoke-void") {
		cfg.Generator.InvokeVoidMethods = genInvokeVoid
	}
	if f.Changed("namespace-dirs") {
		cfg.Generator.NamespaceDirs = genNamespaceDirs
	}
	if f.Changed("report") {
		cfg.Output.Report = genReport
	}
	if f.Changed("exclude") {
		cfg.Inputs.Exclude = append(cfg.Inputs.Exclude, genExclude...)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
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
	if res.ConfigPath != "" {
		logger.Debug("Loaded configuration", "path", res.ConfigPath)
	}

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
	rep, runErr := g.run(ctx, inputs)
	if rep != nil {
		printSummary(cmd.OutOrStdout(), rep)
	}
	return runErr
}

// generator runs the pipeline for a fixed configuration. watch reuses it
// for every batch of changes.
type generator struct {
	cfg    *config.Config
	logger *slog.Logger
	reader *fileio.FileReader
	writer *fileio.FileWriter
	synth  pipeline.Synthesizer

	mu sync.Mutex
	// produced holds the absolute paths of every test file written so far.
	produced map[string]bool
}

func newGenerator(cfg *config.Config, logger *slog.Logger) (*generator, error) {
	writer, err := fileio.NewFileWriter(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	s, err := newSynthesizer(cfg)
	if err != nil {
		return nil, err
	}
	return &generator{
		cfg:      cfg,
		logger:   logger,
		reader:   fileio.NewFileReader(),
		writer:   writer,
		synth:    s,
		produced: make(map[string]bool),
	}, nil
}

// run expands inputs and generates tests for them. The report is nil only
// when the run could not start.
func (g *generator) run(ctx context.Context, inputs []string) (*report.Report, error) {
	files, err := discover.Expand(inputs, discover.Options{
		Extension: sourceExtension,
		Exclude:   g.cfg.Inputs.Exclude,
	})
	if err != nil {
		return nil, err
	}
	files = g.withoutOutput(inputs, files)
	files = g.withoutProduced(files)
	collector := report.NewCollector(len(files))
	logger := g.logger.With("run", collector.RunID())
	logger.Info("Generating tests", "files", len(files), "out", g.writer.BaseDir())

	pcfg, err := pipeline.NewBuilder().
		WithPaths(files...).
		WithReader(g.reader).
		WithWriter(g.writer).
		WithSynthesizer(g.synth).
		WithReadParallelism(g.cfg.Pipeline.ReadParallelism).
		WithProcessParallelism(processParallelism(g.cfg)).
		WithWriteParallelism(g.cfg.Pipeline.WriteParallelism).
		WithQueueSize(g.cfg.Pipeline.QueueSize).
		WithFailFast(g.cfg.Pipeline.FailFast).
		WithLogger(logger).
		WithObserver(collector).
		Build()
	if err != nil {
		return nil, err
	}

	runErr := pipeline.New(pcfg).Run(ctx)
	rep := collector.Finish()
	g.remember(rep)

	if g.cfg.Output.Report != "" {
		if err := rep.Write(g.cfg.Output.Report); err != nil {
			logger.Error("Cannot write report", "path", g.cfg.Output.Report, "error", err.Error())
			if runErr == nil {
				runErr = err
			}
		}
	}
	return rep, runErr
}

// withoutOutput drops files below the output directory when that directory
// is nested inside one of the input directories, so generated tests are not
// fed back in as sources.
func (g *generator) withoutOutput(inputs, files []string) []string {
	out := g.writer.BaseDir()
	nested := false
	for _, in := range inputs {
		rel, err := paths.Relative(in, out)
		if err == nil && rel != "." && paths.IsWithin(in, out) {
			nested = true
			break
		}
	}
	if !nested {
		return files
	}

	kept := files[:0]
	for _, f := range files {
		if paths.IsWithin(out, f) {
			g.logger.Debug("Skipping file in output directory", "path", f)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// withoutProduced drops files this generator wrote in an earlier run.
func (g *generator) withoutProduced(files []string) []string {
	kept := files[:0]
	for _, f := range files {
		if !g.isProduced(f) {
			kept = append(kept, f)
		}
	}
	return kept
}

func (g *generator) remember(rep *report.Report) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, w := range rep.Written {
		g.produced[g.outputPath(w.Output)] = true
	}
}

func (g *generator) isProduced(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.produced[abs]
}

func (g *generator) outputPath(rel string) string {
	return filepath.Join(g.writer.BaseDir(), filepath.FromSlash(rel))
}

func printSummary(w io.Writer, rep *report.Report) {
	if quiet {
		return
	}
	fmt.Fprintln(w, rep.Summary())
}
