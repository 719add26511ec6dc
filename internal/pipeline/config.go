package pipeline

import (
	"log/slog"
	"runtime"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/slogutil"
)

// Default pipeline settings.
const (
	DefaultReadParallelism  = 1
	DefaultWriteParallelism = 1
	DefaultQueueSize        = 64
)

// DefaultProcessParallelism is one generation worker per CPU.
func DefaultProcessParallelism() int {
	return runtime.NumCPU()
}

// Config is a validated, immutable pipeline configuration. Build one with
// NewBuilder.
type Config struct {
	paths     []string
	reader    Reader
	writer    Writer
	synth     Synthesizer
	read      int
	process   int
	write     int
	queueSize int
	failFast  bool
	logger    *slog.Logger
	observer  Observer
}

// Paths returns a copy of the input paths.
func (c *Config) Paths() []string {
	return append([]string(nil), c.paths...)
}

func (c *Config) ReadParallelism() int    { return c.read }
func (c *Config) ProcessParallelism() int { return c.process }
func (c *Config) WriteParallelism() int   { return c.write }
func (c *Config) QueueSize() int          { return c.queueSize }
func (c *Config) FailFast() bool          { return c.failFast }

// Builder accumulates pipeline settings. The zero value is not usable; call
// NewBuilder.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder preloaded with defaults.
func NewBuilder() *Builder {
	return &Builder{cfg: Config{
		read:      DefaultReadParallelism,
		process:   DefaultProcessParallelism(),
		write:     DefaultWriteParallelism,
		queueSize: DefaultQueueSize,
	}}
}

// WithPaths appends input paths.
func (b *Builder) WithPaths(paths ...string) *Builder {
	b.cfg.paths = append(b.cfg.paths, paths...)
	return b
}

func (b *Builder) WithReader(r Reader) *Builder {
	b.cfg.reader = r
	return b
}

func (b *Builder) WithWriter(w Writer) *Builder {
	b.cfg.writer = w
	return b
}

func (b *Builder) WithSynthesizer(s Synthesizer) *Builder {
	b.cfg.synth = s
	return b
}

func (b *Builder) WithReadParallelism(n int) *Builder {
	b.cfg.read = n
	return b
}

func (b *Builder) WithProcessParallelism(n int) *Builder {
	b.cfg.process = n
	return b
}

func (b *Builder) WithWriteParallelism(n int) *Builder {
	b.cfg.write = n
	return b
}

// WithQueueSize sets the capacity of the channels between stages.
func (b *Builder) WithQueueSize(n int) *Builder {
	b.cfg.queueSize = n
	return b
}

// WithFailFast stops admitting new units after the first fault.
func (b *Builder) WithFailFast(on bool) *Builder {
	b.cfg.failFast = on
	return b
}

func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.cfg.logger = l
	return b
}

func (b *Builder) WithObserver(o Observer) *Builder {
	b.cfg.observer = o
	return b
}

// Build validates the settings and returns an immutable Config.
func (b *Builder) Build() (*Config, error) {
	c := b.cfg
	c.paths = append([]string(nil), b.cfg.paths...)

	checks := []struct {
		name  string
		value int
	}{
		{"read parallelism", c.read},
		{"process parallelism", c.process},
		{"write parallelism", c.write},
		{"queue size", c.queueSize},
	}
	for _, check := range checks {
		if check.value < 1 {
			return nil, skerrors.Newf(skerrors.InvalidConfig, "%s must be at least 1, got %d", check.name, check.value)
		}
	}

	switch {
	case c.reader == nil:
		return nil, skerrors.New(skerrors.InvalidConfig, "pipeline needs a reader")
	case c.writer == nil:
		return nil, skerrors.New(skerrors.InvalidConfig, "pipeline needs a writer")
	case c.synth == nil:
		return nil, skerrors.New(skerrors.InvalidConfig, "pipeline needs a synthesizer")
	}

	if c.logger == nil {
		c.logger = slogutil.NewDiscardLogger()
	}
	return &c, nil
}
