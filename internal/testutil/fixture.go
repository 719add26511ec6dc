// Package testutil provides testing utilities for golden tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
)

// FixtureContext holds information about a loaded fixture.
type FixtureContext struct {
	// Name is the fixture directory name (e.g., "cart")
	Name string

	// Root is the absolute path to the fixture directory
	Root string

	// InputPath is the C# source the fixture feeds to the generator
	InputPath string

	// ExpectedDir is the path to the expected/ directory
	ExpectedDir string
}

// LoadFixture loads a C# fixture, failing the test on error.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	root := getFixturesRoot(t)
	fixtureDir := filepath.Join(root, name)

	if _, err := os.Stat(fixtureDir); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", fixtureDir)
	}

	inputPath := filepath.Join(fixtureDir, "input.cs")
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		t.Fatalf("Fixture input not found: %s", inputPath)
	}

	expectedDir := filepath.Join(fixtureDir, "expected")
	if _, err := os.Stat(expectedDir); os.IsNotExist(err) {
		if err := os.MkdirAll(expectedDir, 0o755); err != nil {
			t.Fatalf("Failed to create expected directory: %v", err)
		}
	}

	return &FixtureContext{
		Name:        name,
		Root:        fixtureDir,
		InputPath:   inputPath,
		ExpectedDir: expectedDir,
	}
}

// Input returns the fixture's source text.
func (f *FixtureContext) Input(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile(f.InputPath)
	if err != nil {
		t.Fatalf("Failed to read fixture input: %v", err)
	}
	return string(data)
}

// ExpectedPath returns the path to a golden file within the fixture.
func (f *FixtureContext) ExpectedPath(name string) string {
	return filepath.Join(f.ExpectedDir, filepath.FromSlash(name))
}

// ExpectedFiles lists the golden files of the fixture, slash-separated and
// relative to expected/.
func (f *FixtureContext) ExpectedFiles(t *testing.T) []string {
	t.Helper()

	var files []string
	err := filepath.WalkDir(f.ExpectedDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(f.ExpectedDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to list expected files: %v", err)
	}
	sort.Strings(files)
	return files
}

// getFixturesRoot returns the absolute path to testdata/fixtures/csharp/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	// Get the directory of this source file
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures", "csharp")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

// AvailableFixtures returns the names of all fixtures that have an input file.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	root := getFixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !isHiddenDir(entry.Name()) {
			if _, err := os.Stat(filepath.Join(root, entry.Name(), "input.cs")); err == nil {
				names = append(names, entry.Name())
			}
		}
	}

	return names
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
