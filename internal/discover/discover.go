// Package discover expands command line inputs into the list of C# source
// files to generate tests for.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/paths"
)

// skippedDirs are never descended into, whatever the exclude patterns say.
var skippedDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	"node_modules": true,
}

// Options controls expansion.
type Options struct {
	// Extension selects files inside directories. Defaults to ".cs".
	Extension string
	// Exclude holds doublestar patterns matched against slash paths
	// relative to the input directory.
	Exclude []string
}

// Expand resolves inputs to a sorted, de-duplicated list of files.
// Files named explicitly are kept even when their extension differs;
// directories are walked recursively, skipping hidden and build output
// directories.
func Expand(inputs []string, opts Options) ([]string, error) {
	if opts.Extension == "" {
		opts.Extension = ".cs"
	}
	if err := paths.ValidatePatterns(opts.Exclude); err != nil {
		return nil, skerrors.Wrap(skerrors.InvalidConfig, "bad exclude pattern", err)
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, skerrors.Wrap(skerrors.SourceUnavailable, "cannot access input "+input, err)
		}
		if !info.IsDir() {
			add(input)
			continue
		}
		if err := walk(input, opts, add); err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func walk(root string, opts Options, add func(string)) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, relErr := paths.Relative(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || skippedDirs[d.Name()] || paths.Match(opts.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), opts.Extension) {
			return nil
		}
		if paths.Match(opts.Exclude, rel) {
			return nil
		}
		add(path)
		return nil
	})
	if err != nil {
		return skerrors.Wrap(skerrors.SourceUnavailable, "walking "+root, err)
	}
	return nil
}
