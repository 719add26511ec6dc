package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/pipeline"
)

func fixedClock(start time.Time, elapsed time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(elapsed)
	}
}

func sampleCollector() *Collector {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := newCollector(3, fixedClock(start, 1500*time.Millisecond))

	events := []pipeline.Event{
		{Kind: pipeline.EventRead, Stage: pipeline.StageRead, Path: "src/B.cs"},
		{Kind: pipeline.EventRead, Stage: pipeline.StageRead, Path: "src/A.cs"},
		{Kind: pipeline.EventGenerated, Stage: pipeline.StageProcess, Path: "src/B.cs", Units: 2},
		{Kind: pipeline.EventGenerated, Stage: pipeline.StageProcess, Path: "src/A.cs", Units: 1},
		{Kind: pipeline.EventWritten, Stage: pipeline.StageWrite, Path: "src/B.cs", RelativePath: "BTest.cs"},
		{Kind: pipeline.EventWritten, Stage: pipeline.StageWrite, Path: "src/A.cs", RelativePath: "ATest.cs"},
		{Kind: pipeline.EventFailed, Stage: pipeline.StageWrite, Path: "src/B.cs", RelativePath: "InnerTest.cs",
			Err: &pipeline.UnitError{Stage: pipeline.StageWrite, Path: "src/B.cs", Err: skerrors.New(skerrors.DestinationUnavailable, "disk full")}},
		{Kind: pipeline.EventFailed, Stage: pipeline.StageRead, Path: "src/C.cs",
			Err: skerrors.New(skerrors.SourceUnavailable, "gone")},
	}
	for _, e := range events {
		c.Observe(e)
	}
	return c
}

func TestCollector_Finish(t *testing.T) {
	c := sampleCollector()
	r := c.Finish()

	if _, err := uuid.Parse(r.RunID); err != nil || r.RunID != c.RunID() {
		t.Errorf("RunID = %q is not a UUID: %v", r.RunID, err)
	}
	if r.StartedAt != "2026-03-01T12:00:00Z" {
		t.Errorf("StartedAt = %q", r.StartedAt)
	}
	if r.Duration != "1.5s" {
		t.Errorf("Duration = %q, want 1.5s", r.Duration)
	}
	if r.Inputs != 3 || r.Read != 2 || r.Generated != 3 {
		t.Errorf("counts = %d/%d/%d, want 3/2/3", r.Inputs, r.Read, r.Generated)
	}

	if len(r.Written) != 2 || r.Written[0].Output != "ATest.cs" || r.Written[1].Output != "BTest.cs" {
		t.Errorf("Written = %+v, want sorted by source", r.Written)
	}

	if len(r.Failures) != 2 {
		t.Fatalf("Failures = %+v, want 2", r.Failures)
	}
	first := r.Failures[0]
	if first.Source != "src/B.cs" || first.Stage != "write" || first.Output != "InnerTest.cs" {
		t.Errorf("Failures[0] = %+v", first)
	}
	if first.Code != string(skerrors.DestinationUnavailable) {
		t.Errorf("Failures[0].Code = %q, want %s", first.Code, skerrors.DestinationUnavailable)
	}
	if first.Hint == "" {
		t.Error("Failures[0].Hint should carry a suggestion")
	}
	if r.Failures[1].Code != string(skerrors.SourceUnavailable) {
		t.Errorf("Failures[1].Code = %q", r.Failures[1].Code)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(100)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Observe(pipeline.Event{Kind: pipeline.EventWritten, Path: "x.cs", RelativePath: "XTest.cs"})
		}()
	}
	wg.Wait()

	if got := len(c.Finish().Written); got != 100 {
		t.Errorf("Written = %d, want 100", got)
	}
}

func TestCollector_EmptyRunHasEmptyLists(t *testing.T) {
	r := NewCollector(0).Finish()

	var buf bytes.Buffer
	if err := r.Encode(&buf, FormatJSON); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"written": []`) || !strings.Contains(buf.String(), `"failures": []`) {
		t.Errorf("empty lists should encode as [], got:\n%s", buf.String())
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"out/report.json": FormatJSON,
		"report.YAML":     FormatYAML,
		"report.yml":      FormatYAML,
		"report.toml":     FormatTOML,
		"report":          FormatJSON,
		"report.txt":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFor(path); got != want {
			t.Errorf("FormatFor(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestReport_Write(t *testing.T) {
	r := sampleCollector().Finish()
	dir := t.TempDir()

	decoders := map[string]func([]byte, *Report) error{
		"report.json": func(b []byte, out *Report) error { return json.Unmarshal(b, out) },
		"report.yaml": func(b []byte, out *Report) error { return yaml.Unmarshal(b, out) },
		"report.toml": func(b []byte, out *Report) error { return toml.Unmarshal(b, out) },
	}

	for name, decode := range decoders {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			if err := r.Write(path); err != nil {
				t.Fatalf("Write: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var got Report
			if err := decode(data, &got); err != nil {
				t.Fatalf("decode %s: %v\n%s", name, err, data)
			}
			if got.RunID != r.RunID {
				t.Errorf("RunID = %q, want %q", got.RunID, r.RunID)
			}
			if len(got.Written) != 2 || got.Written[1].Output != "BTest.cs" {
				t.Errorf("Written = %+v", got.Written)
			}
			if len(got.Failures) != 2 || got.Failures[0].Code != string(skerrors.DestinationUnavailable) {
				t.Errorf("Failures = %+v", got.Failures)
			}
		})
	}
}

func TestReport_WriteUnwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := NewCollector(0).Finish().Write(filepath.Join(blocker, "report.json"))
	if !skerrors.Is(err, skerrors.DestinationUnavailable) {
		t.Errorf("Write() error = %v, want DESTINATION_UNAVAILABLE", err)
	}
}

func TestReport_Summary(t *testing.T) {
	r := sampleCollector().Finish()
	want := "3 input(s), 2 test file(s) written, 2 failure(s) in 1.5s"
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
