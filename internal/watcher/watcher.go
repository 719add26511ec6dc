// Package watcher re-runs generation when C# sources change on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"skelgen/internal/paths"
	"skelgen/internal/slogutil"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// ChangeHandler is called with each settled batch of events.
type ChangeHandler func(events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs int
	// Extensions limits events to these file extensions.
	Extensions []string
	// IgnorePatterns are doublestar patterns matched against slash paths
	// relative to the watched root.
	IgnorePatterns []string
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs:     300,
		Extensions:     []string{".cs"},
		IgnorePatterns: []string{"**/bin/**", "**/obj/**"},
	}
}

// Watcher watches directory trees with fsnotify.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	handler ChangeHandler
}

// New creates a new file system watcher
func New(config Config, logger *slog.Logger, handler ChangeHandler) *Watcher {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Watcher{config: config, logger: logger, handler: handler}
}

type watchRoot struct {
	dir string
	// file is set when the root was given as a single file.
	file string
}

// Run watches roots until ctx is done. A root may be a directory, watched
// recursively, or a file, in which case its directory is watched and only
// that file reported. Run returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, roots []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	var watched []watchRoot
	for _, root := range roots {
		wr, err := resolveRoot(root)
		if err != nil {
			return err
		}
		if err := w.addRecursive(fsw, wr.dir, wr.dir, wr.file == ""); err != nil {
			return err
		}
		watched = append(watched, wr)
	}

	debounce := time.Duration(w.config.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	batches := NewBatchDebouncer(debounce, func(events []Event) {
		events = dedupe(events)
		w.logger.Debug("Changes settled", "events", len(events))
		if w.handler != nil {
			w.handler(events)
		}
	})
	defer batches.Cancel()

	w.logger.Info("Watching for changes", "roots", len(watched), "debounceMs", debounce.Milliseconds())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			root, ok := owner(watched, path)
			if !ok {
				continue
			}

			if ev.Has(fsnotify.Create) && root.file == "" {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if err := w.addRecursive(fsw, root.dir, path, true); err != nil {
						w.logger.Warn("Cannot watch new directory", "path", path, "error", err.Error())
					}
					continue
				}
			}

			if !w.relevant(root, path) {
				continue
			}
			typ, ok := eventType(ev.Op)
			if !ok {
				continue
			}
			batches.Add(Event{Type: typ, Path: path, Timestamp: time.Now()})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "error", err.Error())
		}
	}
}

func resolveRoot(root string) (watchRoot, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return watchRoot{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return watchRoot{}, err
	}
	if info.IsDir() {
		return watchRoot{dir: abs}, nil
	}
	return watchRoot{dir: filepath.Dir(abs), file: abs}, nil
}

// addRecursive adds dir, and when recursive is set every directory below
// it that is not hidden or ignored.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root, dir string, recursive bool) error {
	if !recursive {
		return fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.IsIgnored(root, path)) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// owner returns the watched root that path belongs to.
func owner(roots []watchRoot, path string) (watchRoot, bool) {
	for _, r := range roots {
		if r.file != "" {
			if path == r.file {
				return r, true
			}
			continue
		}
		if path == r.dir || strings.HasPrefix(path, r.dir+string(filepath.Separator)) {
			return r, true
		}
	}
	return watchRoot{}, false
}

func (w *Watcher) relevant(root watchRoot, path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if len(w.config.Extensions) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		found := false
		for _, e := range w.config.Extensions {
			if strings.EqualFold(e, ext) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return !w.IsIgnored(root.dir, path)
}

// IsIgnored reports whether path, taken relative to root, matches one of
// the ignore patterns.
func (w *Watcher) IsIgnored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return paths.Match(w.config.IgnorePatterns, filepath.ToSlash(rel))
}

func eventType(op fsnotify.Op) (EventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate, true
	case op.Has(fsnotify.Write):
		return EventModify, true
	case op.Has(fsnotify.Remove):
		return EventDelete, true
	case op.Has(fsnotify.Rename):
		return EventRename, true
	default:
		return 0, false
	}
}

// dedupe keeps the last event per path, ordered by path.
func dedupe(events []Event) []Event {
	last := make(map[string]Event, len(events))
	for _, e := range events {
		last[e.Path] = e
	}
	out := make([]Event, 0, len(last))
	for _, e := range last {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
