// Package paths normalizes file paths and matches them against exclude
// patterns.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Relative converts path to a root-relative path with forward slashes.
// Symlinks are resolved on both sides when they exist.
func Relative(root, path string) (string, error) {
	resolved, err := resolve(path)
	if err != nil {
		return "", err
	}
	rootResolved, err := resolve(root)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Not created yet
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithin checks if path is inside root
func IsWithin(root, path string) bool {
	rel, err := Relative(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// Normalize converts backslashes to forward slashes.
func Normalize(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// Match reports whether the slash path rel matches any doublestar pattern.
// A directory matches "**/bin/**" by itself, not only its contents.
func Match(patterns []string, rel string) bool {
	rel = Normalize(rel)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
			return true
		}
	}
	return false
}

// ValidatePatterns returns the first malformed pattern's error.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if _, err := doublestar.Match(pattern, "x"); err != nil {
			return err
		}
	}
	return nil
}
