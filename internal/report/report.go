// Package report records what a generation run produced and writes it as
// JSON, YAML or TOML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/pipeline"
)

// Report is the summary of one run
type Report struct {
	RunID     string    `json:"runId" yaml:"runId" toml:"runId"`
	StartedAt string    `json:"startedAt" yaml:"startedAt" toml:"startedAt"` // RFC 3339
	Duration  string    `json:"duration" yaml:"duration" toml:"duration"`
	Inputs    int       `json:"inputs" yaml:"inputs" toml:"inputs"`
	Read      int       `json:"read" yaml:"read" toml:"read"`
	Generated int       `json:"generated" yaml:"generated" toml:"generated"`
	Written   []Written `json:"written" yaml:"written" toml:"written"`
	Failures  []Failure `json:"failures" yaml:"failures" toml:"failures"`
}

// Written is one test file that reached the destination
type Written struct {
	Source string `json:"source" yaml:"source" toml:"source"`
	Output string `json:"output" yaml:"output" toml:"output"`
}

// Failure is one unit of work that failed
type Failure struct {
	Stage   string `json:"stage" yaml:"stage" toml:"stage"`
	Source  string `json:"source" yaml:"source" toml:"source"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	Code    string `json:"code" yaml:"code" toml:"code"`
	Message string `json:"message" yaml:"message" toml:"message"`
	Hint    string `json:"hint,omitempty" yaml:"hint,omitempty" toml:"hint,omitempty"`
}

// Collector builds a Report from pipeline events. It is safe for
// concurrent use.
type Collector struct {
	mu      sync.Mutex
	now     func() time.Time
	started time.Time
	report  Report
}

// NewCollector starts a report for a run over the given number of inputs.
func NewCollector(inputs int) *Collector {
	return newCollector(inputs, time.Now)
}

func newCollector(inputs int, now func() time.Time) *Collector {
	started := now()
	return &Collector{
		now:     now,
		started: started,
		report: Report{
			RunID:     uuid.New().String(),
			StartedAt: started.UTC().Format(time.RFC3339),
			Inputs:    inputs,
			Written:   []Written{},
			Failures:  []Failure{},
		},
	}
}

// RunID identifies the run in logs and in the report.
func (c *Collector) RunID() string {
	return c.report.RunID
}

// Observe implements pipeline.Observer.
func (c *Collector) Observe(e pipeline.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case pipeline.EventRead:
		c.report.Read++
	case pipeline.EventGenerated:
		c.report.Generated += e.Units
	case pipeline.EventWritten:
		c.report.Written = append(c.report.Written, Written{Source: e.Path, Output: e.RelativePath})
	case pipeline.EventFailed:
		code := skerrors.CodeOf(e.Err)
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		c.report.Failures = append(c.report.Failures, Failure{
			Stage:   string(e.Stage),
			Source:  e.Path,
			Output:  e.RelativePath,
			Code:    string(code),
			Message: msg,
			Hint:    skerrors.Hint(code),
		})
	}
}

// Finish stamps the duration and returns the report with entries sorted
// by source path. The collector may keep receiving events afterwards.
func (c *Collector) Finish() *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.report
	r.Duration = c.now().Sub(c.started).Round(time.Millisecond).String()
	r.Written = append([]Written{}, c.report.Written...)
	r.Failures = append([]Failure{}, c.report.Failures...)

	sort.Slice(r.Written, func(i, j int) bool {
		if r.Written[i].Source != r.Written[j].Source {
			return r.Written[i].Source < r.Written[j].Source
		}
		return r.Written[i].Output < r.Written[j].Output
	})
	sort.SliceStable(r.Failures, func(i, j int) bool {
		return r.Failures[i].Source < r.Failures[j].Source
	})
	return &r
}

// Format is a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension. Unknown or missing
// extensions fall back to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Encode writes r to w in the given format.
func (r *Report) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// Write saves the report to path, choosing the format by extension.
func (r *Report) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return skerrors.Wrap(skerrors.DestinationUnavailable, "failed to create report directory", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return skerrors.Wrap(skerrors.DestinationUnavailable, "failed to create report file", err)
	}
	if err := r.Encode(f, FormatFor(path)); err != nil {
		_ = f.Close()
		return skerrors.Wrap(skerrors.InternalError, "failed to encode report", err)
	}
	if err := f.Close(); err != nil {
		return skerrors.Wrap(skerrors.DestinationUnavailable, "failed to close report file", err)
	}
	return nil
}

// Summary is a one-line human readable digest.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d input(s), %d test file(s) written, %d failure(s) in %s",
		r.Inputs, len(r.Written), len(r.Failures), r.Duration)
}
