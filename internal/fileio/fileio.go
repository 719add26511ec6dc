// Package fileio reads source files and writes generated files to disk.
package fileio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	skerrors "skelgen/internal/errors"
)

// FileReader reads whole files as text.
type FileReader struct{}

// NewFileReader creates a FileReader.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadText returns the contents of path.
func (r *FileReader) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if path == "" {
		return "", skerrors.New(skerrors.ArgumentFailure, "path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", skerrors.Wrap(skerrors.SourceUnavailable, "cannot read "+path, err)
	}
	return string(data), nil
}

// FileWriter writes files below a base directory.
type FileWriter struct {
	baseDir string
}

// NewFileWriter creates a FileWriter rooted at baseDir. An empty baseDir
// means the current working directory.
func NewFileWriter(baseDir string) (*FileWriter, error) {
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, skerrors.Wrap(skerrors.DestinationUnavailable, "cannot resolve output directory", err)
	}
	return &FileWriter{baseDir: abs}, nil
}

// BaseDir returns the absolute output directory.
func (w *FileWriter) BaseDir() string {
	return w.baseDir
}

// WriteText writes content to relativePath below the base directory,
// replacing any existing file. Missing directories are created. The file
// appears complete or not at all.
func (w *FileWriter) WriteText(ctx context.Context, relativePath, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsLocal(filepath.FromSlash(relativePath)) {
		return skerrors.Newf(skerrors.DestinationUnavailable, "refusing to write outside the output directory: %q", relativePath)
	}

	path := filepath.Join(w.baseDir, filepath.FromSlash(relativePath))
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return skerrors.Wrap(skerrors.DestinationUnavailable, "cannot create "+dir, err)
	}

	if err := writeAtomic(dir, path, []byte(content)); err != nil {
		return skerrors.Wrap(skerrors.DestinationUnavailable, "cannot write "+path, err)
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
