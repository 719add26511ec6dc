package pipeline

import "fmt"

// Stage names one of the three pipeline stages.
type Stage string

const (
	StageRead    Stage = "read"
	StageProcess Stage = "process"
	StageWrite   Stage = "write"
)

// EventKind identifies what happened to a unit of work.
type EventKind string

const (
	EventRead      EventKind = "read"
	EventGenerated EventKind = "generated"
	EventWritten   EventKind = "written"
	EventFailed    EventKind = "failed"
)

// Event reports progress of a single input or generated file.
type Event struct {
	Kind  EventKind
	Stage Stage
	// Path is the input path the event belongs to.
	Path string
	// RelativePath is set for written units and write failures.
	RelativePath string
	// Units is the number of generated units (EventGenerated only).
	Units int
	Err   error
}

// Observer receives pipeline events. Observe is called from worker
// goroutines and must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// UnitError is a fault of one unit of work, tagged with where it happened.
type UnitError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
