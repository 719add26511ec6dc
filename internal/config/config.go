package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"skelgen/internal/slogutil"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// DirName is the per-project config directory.
const DirName = ".skelgen"

// EnvPrefix prefixes environment overrides, e.g. SKELGEN_PIPELINE_QUEUESIZE.
const EnvPrefix = "SKELGEN"

// Config represents the complete skelgen configuration
type Config struct {
	Version int `json:"version" yaml:"version" toml:"version" mapstructure:"version"`

	Generator GeneratorConfig `json:"generator" yaml:"generator" toml:"generator" mapstructure:"generator"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline" toml:"pipeline" mapstructure:"pipeline"`
	Output    OutputConfig    `json:"output" yaml:"output" toml:"output" mapstructure:"output"`
	Inputs    InputsConfig    `json:"inputs" yaml:"inputs" toml:"inputs" mapstructure:"inputs"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" toml:"logging" mapstructure:"logging"`
	Watch     WatchConfig     `json:"watch" yaml:"watch" toml:"watch" mapstructure:"watch"`
}

// GeneratorConfig shapes the generated test files
type GeneratorConfig struct {
	FileExtension     string `json:"fileExtension" yaml:"fileExtension" toml:"fileExtension" mapstructure:"fileExtension"`
	TestFramework     string `json:"testFramework" yaml:"testFramework" toml:"testFramework" mapstructure:"testFramework"`
	MockFramework     string `json:"mockFramework" yaml:"mockFramework" toml:"mockFramework" mapstructure:"mockFramework"`
	FailMarker        string `json:"failMarker" yaml:"failMarker" toml:"failMarker" mapstructure:"failMarker"`
	InvokeVoidMethods bool   `json:"invokeVoidMethods" yaml:"invokeVoidMethods" toml:"invokeVoidMethods" mapstructure:"invokeVoidMethods"`
	NamespaceDirs     bool   `json:"namespaceDirs" yaml:"namespaceDirs" toml:"namespaceDirs" mapstructure:"namespaceDirs"`
}

// PipelineConfig sizes the worker pools. ProcessParallelism 0 means one
// worker per CPU.
type PipelineConfig struct {
	ReadParallelism    int  `json:"readParallelism" yaml:"readParallelism" toml:"readParallelism" mapstructure:"readParallelism"`
	ProcessParallelism int  `json:"processParallelism" yaml:"processParallelism" toml:"processParallelism" mapstructure:"processParallelism"`
	WriteParallelism   int  `json:"writeParallelism" yaml:"writeParallelism" toml:"writeParallelism" mapstructure:"writeParallelism"`
	QueueSize          int  `json:"queueSize" yaml:"queueSize" toml:"queueSize" mapstructure:"queueSize"`
	FailFast           bool `json:"failFast" yaml:"failFast" toml:"failFast" mapstructure:"failFast"`
}

// OutputConfig says where results go
type OutputConfig struct {
	Dir    string `json:"dir" yaml:"dir" toml:"dir" mapstructure:"dir"`
	Report string `json:"report" yaml:"report" toml:"report" mapstructure:"report"`
}

// InputsConfig lists default inputs when none are given on the command line
type InputsConfig struct {
	Paths   []string `json:"paths" yaml:"paths" toml:"paths" mapstructure:"paths"`
	Exclude []string `json:"exclude" yaml:"exclude" toml:"exclude" mapstructure:"exclude"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	Level      string `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
	File       string `json:"file" yaml:"file" toml:"file" mapstructure:"file"`
	FileLevel  string `json:"fileLevel" yaml:"fileLevel" toml:"fileLevel" mapstructure:"fileLevel"`
	MaxSize    string `json:"maxSize" yaml:"maxSize" toml:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups" toml:"maxBackups" mapstructure:"maxBackups"`
}

// WatchConfig tunes watch mode
type WatchConfig struct {
	DebounceMs int `json:"debounceMs" yaml:"debounceMs" toml:"debounceMs" mapstructure:"debounceMs"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Generator: GeneratorConfig{
			FileExtension:     ".cs",
			TestFramework:     "Microsoft.VisualStudio.TestTools.UnitTesting",
			MockFramework:     "Moq",
			FailMarker:        "autogenerated",
			InvokeVoidMethods: true,
		},
		Pipeline: PipelineConfig{
			ReadParallelism:  1,
			WriteParallelism: 1,
			QueueSize:        64,
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Inputs: InputsConfig{
			Paths:   []string{},
			Exclude: []string{"**/bin/**", "**/obj/**"},
		},
		Logging: LoggingConfig{
			Format:     slogutil.FormatText,
			Level:      "warn",
			FileLevel:  "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 300,
		},
	}
}

// setDefaults registers every key with viper so that environment
// overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("generator.fileExtension", d.Generator.FileExtension)
	v.SetDefault("generator.testFramework", d.Generator.TestFramework)
	v.SetDefault("generator.mockFramework", d.Generator.MockFramework)
	v.SetDefault("generator.failMarker", d.Generator.FailMarker)
	v.SetDefault("generator.invokeVoidMethods", d.Generator.InvokeVoidMethods)
	v.SetDefault("generator.namespaceDirs", d.Generator.NamespaceDirs)

	v.SetDefault("pipeline.readParallelism", d.Pipeline.ReadParallelism)
	v.SetDefault("pipeline.processParallelism", d.Pipeline.ProcessParallelism)
	v.SetDefault("pipeline.writeParallelism", d.Pipeline.WriteParallelism)
	v.SetDefault("pipeline.queueSize", d.Pipeline.QueueSize)
	v.SetDefault("pipeline.failFast", d.Pipeline.FailFast)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.report", d.Output.Report)

	v.SetDefault("inputs.paths", d.Inputs.Paths)
	v.SetDefault("inputs.exclude", d.Inputs.Exclude)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.fileLevel", d.Logging.FileLevel)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)

	v.SetDefault("watch.debounceMs", d.Watch.DebounceMs)
}

// LoadResult describes where a configuration came from.
type LoadResult struct {
	Config *Config
	// ConfigPath is the file that was read, empty when only defaults and
	// environment were used.
	ConfigPath string
}

// LoadConfig loads configuration for the project rooted at root.
func LoadConfig(root string) (*Config, error) {
	res, err := LoadConfigWithDetails(root)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadConfigWithDetails reads <root>/.skelgen/config.{json,toml,yaml,yml}
// (first found), applies SKELGEN_* environment overrides and validates
// the result.
func LoadConfigWithDetails(root string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(root, DirName))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LoadResult{Config: &cfg, ConfigPath: v.ConfigFileUsed()}, nil
}

// Path returns the JSON config path for root.
func Path(root string) string {
	return filepath.Join(root, DirName, "config.json")
}

// Save writes the configuration as JSON to <root>/.skelgen/config.json.
func (c *Config) Save(root string) error {
	path := Path(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	// Write atomically
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	if c.Generator.FileExtension != "" && !strings.HasPrefix(c.Generator.FileExtension, ".") {
		return &ConfigError{Field: "generator.fileExtension", Message: "must start with a dot"}
	}

	positive := []struct {
		field string
		value int
	}{
		{"pipeline.readParallelism", c.Pipeline.ReadParallelism},
		{"pipeline.writeParallelism", c.Pipeline.WriteParallelism},
		{"pipeline.queueSize", c.Pipeline.QueueSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			return &ConfigError{Field: p.field, Message: fmt.Sprintf("must be at least 1, got %d", p.value)}
		}
	}
	if c.Pipeline.ProcessParallelism < 0 {
		return &ConfigError{Field: "pipeline.processParallelism", Message: "must not be negative (0 means one per CPU)"}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", slogutil.FormatText, slogutil.FormatJSON:
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q (want text or json)", c.Logging.Format)}
	}
	if _, err := slogutil.ParseSize(c.Logging.MaxSize); err != nil {
		return &ConfigError{Field: "logging.maxSize", Message: err.Error()}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}

	if c.Watch.DebounceMs < 0 {
		return &ConfigError{Field: "watch.debounceMs", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
