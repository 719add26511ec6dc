package testutil

import (
	"path/filepath"
	"strings"
)

// NormalizeText makes generated source comparable across platforms:
// CRLF becomes LF, trailing whitespace is dropped from every line, and the
// text ends in exactly one newline.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

// NormalizeFilePath normalizes a file path for consistent comparison.
// - Converts to forward slashes
// - Makes relative to root
// - Cleans the path
func NormalizeFilePath(path, root string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	root = strings.ReplaceAll(root, "\\", "/")

	rel, err := filepath.Rel(root, path)
	if err == nil {
		path = rel
	} else if strings.HasPrefix(path, root) {
		path = strings.TrimPrefix(path, root)
		path = strings.TrimPrefix(path, "/")
	}

	path = filepath.Clean(path)
	path = strings.ReplaceAll(path, "\\", "/")

	return path
}
