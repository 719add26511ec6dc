//go:build cgo

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"skelgen/internal/config"
	"skelgen/internal/slogutil"
	"skelgen/internal/testutil"
	"skelgen/internal/watcher"
)

func setupProject(t *testing.T, out string) (src string, g *generator) {
	t.Helper()
	fixture := testutil.LoadFixture(t, "cart")

	src = t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "Cart.cs"), []byte(fixture.Input(t)), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(src, out)
	g, err := newGenerator(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	return src, g
}

func TestGenerator_Run(t *testing.T) {
	src, g := setupProject(t, "out")
	g.cfg.Output.Report = filepath.Join(t.TempDir(), "report.json")

	rep, err := g.run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Written) != 1 || rep.Written[0].Output != "CartTest.cs" {
		t.Fatalf("Written = %+v", rep.Written)
	}

	data, err := os.ReadFile(filepath.Join(src, "out", "CartTest.cs"))
	if err != nil {
		t.Fatal(err)
	}
	fixture := testutil.LoadFixture(t, "cart")
	testutil.CompareGolden(t, fixture, "CartTest.cs", string(data))

	if _, err := os.Stat(g.cfg.Output.Report); err != nil {
		t.Errorf("report not written: %v", err)
	}

	// The output directory sits inside the input; its tests are not sources.
	rep, err = g.run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.Inputs != 1 {
		t.Errorf("second run Inputs = %d, want 1", rep.Inputs)
	}
}

func TestGenerator_ParseFailure(t *testing.T) {
	src, g := setupProject(t, "out")
	bad := filepath.Join(src, "Broken.cs")
	if err := os.WriteFile(bad, []byte("namespace N { class {"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := g.run(context.Background(), []string{src})
	if err == nil {
		t.Fatal("run should report the broken file")
	}
	if len(rep.Written) != 1 || len(rep.Failures) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Failures[0].Source != bad || rep.Failures[0].Code != "PARSE_FAILURE" {
		t.Errorf("Failures[0] = %+v", rep.Failures[0])
	}
}

func TestWatchSession_Handle(t *testing.T) {
	src, g := setupProject(t, ".")
	ws := &watchSession{gen: g, inputs: []string{src}}

	rep, err := ws.handle(context.Background(), []watcher.Event{
		{Type: watcher.EventModify, Path: filepath.Join(src, "Cart.cs"), Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rep == nil || len(rep.Written) != 1 {
		t.Fatalf("report = %+v", rep)
	}

	// Writing CartTest.cs comes back as an event and must be ignored.
	rep, err = ws.handle(context.Background(), []watcher.Event{
		{Type: watcher.EventCreate, Path: filepath.Join(src, "CartTest.cs"), Timestamp: time.Now()},
	})
	if err != nil || rep != nil {
		t.Errorf("handle(own output) = %v, %v; want nothing to do", rep, err)
	}

	// A removal re-runs everything, still without feeding CartTest.cs back in.
	rep, err = ws.handle(context.Background(), []watcher.Event{
		{Type: watcher.EventDelete, Path: filepath.Join(src, "Old.cs"), Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("handle(delete): %v", err)
	}
	if rep == nil || rep.Inputs != 1 {
		t.Errorf("report = %+v, want one input", rep)
	}
}

func TestGenerator_SameClassNameInTwoNamespaces(t *testing.T) {
	src := t.TempDir()
	for _, ns := range []string{"A", "B"} {
		dir := filepath.Join(src, ns)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		code := "namespace Shop." + ns + "\n{\n    public class Cart\n    {\n    }\n}\n"
		if err := os.WriteFile(filepath.Join(dir, "Cart.cs"), []byte(code), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	g, err := newGenerator(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}

	rep, err := g.run(context.Background(), []string{src})
	if err == nil {
		t.Fatal("run should report the clashing output path")
	}
	if len(rep.Written) != 1 || len(rep.Failures) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Failures[0].Code != "DESTINATION_UNAVAILABLE" || rep.Failures[0].Output != "CartTest.cs" {
		t.Errorf("Failures[0] = %+v", rep.Failures[0])
	}

	cfg.Generator.NamespaceDirs = true
	g, err = newGenerator(cfg, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	rep, err = g.run(context.Background(), []string{src})
	if err != nil {
		t.Fatalf("run with namespace dirs: %v", err)
	}
	for _, rel := range []string{"Shop/A/CartTest.cs", "Shop/B/CartTest.cs"} {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("%s not written: %v", rel, err)
		}
	}
	if len(rep.Written) != 2 {
		t.Errorf("Written = %+v, want 2", rep.Written)
	}
}
