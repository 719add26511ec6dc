package slogutil

import (
	"io"
	"log/slog"
)

// Options describes where and how the CLI logs.
type Options struct {
	// Level applies to the console.
	Level slog.Level
	// Format is FormatText or FormatJSON.
	Format string
	// File, when set, receives a copy of every record at FileLevel or above
	// in the line format.
	File       string
	FileLevel  slog.Level
	MaxSize    string
	MaxBackups int
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing to console and, if configured, to a rotating
// log file. The returned closer releases the file.
func New(console io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	consoleHandler := NewHandler(console, opts.Format, opts.Level)
	if opts.File == "" {
		return slog.New(consoleHandler), nopCloser{}, nil
	}

	size, err := ParseSize(opts.MaxSize)
	if err != nil {
		return nil, nil, err
	}
	rf, err := OpenRotatingFile(opts.File, size, opts.MaxBackups)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := NewLineHandler(rf, &slog.HandlerOptions{Level: opts.FileLevel})
	return slog.New(NewTeeHandler(consoleHandler, fileHandler)), rf, nil
}
