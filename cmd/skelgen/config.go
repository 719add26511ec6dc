package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"skelgen/internal/config"
	skerrors "skelgen/internal/errors"
)

var (
	configFormat string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage skelgen configuration",
	Long:  "View and manage skelgen configuration stored in .skelgen/config.{json,yaml,toml}",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and SKELGEN_*
environment overrides are applied.

Examples:
  skelgen config show                # Human readable
  skelgen config show --format json  # Raw JSON
  skelgen config show --format toml  # TOML, ready to paste into config.toml`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .skelgen/config.json",
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range envKeys(config.DefaultConfig()) {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, yaml, toml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config.json")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	return writeConfig(cmd.OutOrStdout(), res, configFormat)
}

func writeConfig(w io.Writer, res *config.LoadResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res.Config, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		return yaml.NewEncoder(w).Encode(res.Config)
	case "toml":
		return toml.NewEncoder(w).Encode(res.Config)
	case "human":
		source := res.ConfigPath
		if source == "" {
			source = "(defaults)"
		}
		fmt.Fprintln(w, "skelgen configuration")
		fmt.Fprintln(w, strings.Repeat("─", 50))
		fmt.Fprintf(w, "Source: %s\n\n", source)
		for _, kv := range flatten(res.Config) {
			fmt.Fprintf(w, "  %-32s %s\n", kv[0], kv[1])
		}
		return nil
	default:
		return skerrors.Newf(skerrors.ArgumentFailure, "unsupported format: %s", format)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.Path(rootDir)
	if _, err := os.Stat(path); err == nil && !configForce {
		return skerrors.Newf(skerrors.ArgumentFailure, "%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(rootDir); err != nil {
		return skerrors.Wrap(skerrors.DestinationUnavailable, "cannot write config", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// flatten lists the configuration as sorted dotted key / value pairs.
func flatten(cfg *config.Config) [][2]string {
	data, _ := json.Marshal(cfg)
	var tree map[string]interface{}
	_ = json.Unmarshal(data, &tree)

	var out [][2]string
	var walk func(prefix string, v interface{})
	walk = func(prefix string, v interface{}) {
		if m, ok := v.(map[string]interface{}); ok {
			for k, child := range m {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
			return
		}
		out = append(out, [2]string{prefix, formatValue(v)})
	}
	walk("", tree)

	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		if x == "" {
			return `""`
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

// envKeys names the environment variable for every configuration key.
func envKeys(cfg *config.Config) []string {
	pairs := flatten(cfg)
	keys := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		keys = append(keys, config.EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(kv[0], ".", "_")))
	}
	return keys
}
