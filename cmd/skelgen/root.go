package main

import (
	"github.com/spf13/cobra"

	"skelgen/internal/version"
)

var (
	rootDir   string
	verbosity int
	quiet     bool
	logFormat string
	logFile   string
)

var rootCmd = &cobra.Command{
	Use:   "skelgen",
	Short: "skelgen - C# unit test skeleton generator",
	Long: `skelgen reads C# source files and writes one MSTest + Moq test class
skeleton per class found: a TestInitialize that builds the class under test
from its widest public constructor, and one test method per public method.

Configuration is read from .skelgen/config.{json,yaml,toml} below --root and
may be overridden with SKELGEN_* environment variables.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("skelgen version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root holding the .skelgen directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress logs and the run summary")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Console log format: text or json (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this rotating file")
}
