// Package pipeline runs test generation as three concurrent stages: reading
// source files, synthesizing test units, and writing them out. Stages are
// joined by bounded channels so a slow stage applies backpressure upstream.
package pipeline

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/model"
)

// Reader loads source text.
type Reader interface {
	ReadText(ctx context.Context, path string) (string, error)
}

// Writer stores generated text.
type Writer interface {
	WriteText(ctx context.Context, relativePath, content string) error
}

// Synthesizer generates test units from source text. Units are streamed:
// each one is handed to the write stage as soon as it is yielded.
type Synthesizer interface {
	Units(ctx context.Context, source string) iter.Seq2[model.GeneratedUnit, error]
}

// Pipeline executes one configured run.
type Pipeline struct {
	cfg    *Config
	logger *slog.Logger
}

// New creates a Pipeline from a validated Config.
func New(cfg *Config) *Pipeline {
	return &Pipeline{cfg: cfg, logger: cfg.logger}
}

type source struct {
	path string
	text string
}

type output struct {
	path string
	unit model.GeneratedUnit
}

// run holds the state shared by the workers of one Run call.
type run struct {
	cfg *Config
	log *slog.Logger

	ctx  context.Context
	stop context.Context
	halt context.CancelFunc

	mu     sync.Mutex
	faults []error
	// claims maps each output path to the input that produced it first.
	claims map[string]string

	read, generated, written atomic.Int64
}

// Run processes every configured path. Each unit of work that fails is
// reported in the returned *errors.AggregateError; the other units still
// complete. Run returns nil when every unit succeeded.
func (p *Pipeline) Run(ctx context.Context) error {
	stop, halt := context.WithCancel(ctx)
	defer halt()

	r := &run{cfg: p.cfg, log: p.logger, ctx: ctx, stop: stop, halt: halt, claims: make(map[string]string)}
	start := time.Now()

	p.logger.Debug("Pipeline starting",
		"inputs", len(p.cfg.paths),
		"read", p.cfg.read,
		"process", p.cfg.process,
		"write", p.cfg.write,
		"queue", p.cfg.queueSize,
	)

	paths := make(chan string)
	sources := make(chan source, p.cfg.queueSize)
	outputs := make(chan output, p.cfg.queueSize)

	go r.feed(paths)
	readDone := startStage(r, StageRead, p.cfg.read, paths, func(path string) { r.readOne(path, sources) }, func() { close(sources) })
	processDone := startStage(r, StageProcess, p.cfg.process, sources, func(s source) { r.processOne(s, outputs) }, func() { close(outputs) })
	writeDone := startStage(r, StageWrite, p.cfg.write, outputs, r.writeOne, nil)

	<-readDone
	<-processDone
	<-writeDone

	if err := ctx.Err(); err != nil {
		r.record(err)
	}

	r.mu.Lock()
	faults := r.faults
	r.mu.Unlock()

	p.logger.Info("Pipeline finished",
		"inputs", len(p.cfg.paths),
		"read", r.read.Load(),
		"generated", r.generated.Load(),
		"written", r.written.Load(),
		"failed", len(faults),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)

	return skerrors.NewAggregate(faults)
}

// feed admits input paths until they run out or admission stops.
func (r *run) feed(paths chan<- string) {
	defer close(paths)
	for _, path := range r.cfg.paths {
		if r.stop.Err() != nil {
			return
		}
		select {
		case paths <- path:
		case <-r.stop.Done():
			return
		}
	}
}

// startStage runs workers that drain in, then calls closeOut. The returned
// channel is closed once the stage is done.
func startStage[T any](r *run, stage Stage, workers int, in <-chan T, fn func(T), closeOut func()) <-chan struct{} {
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range in {
				fn(item)
			}
		}()
	}
	go func() {
		wg.Wait()
		if closeOut != nil {
			closeOut()
		}
		r.log.Debug("Stage finished", "stage", string(stage))
		close(done)
	}()
	return done
}

func (r *run) readOne(path string, out chan<- source) {
	if r.stop.Err() != nil {
		return
	}
	text, err := r.cfg.reader.ReadText(r.ctx, path)
	if err != nil {
		r.fail(StageRead, path, "", err)
		return
	}
	r.read.Add(1)
	r.observe(Event{Kind: EventRead, Stage: StageRead, Path: path})
	out <- source{path: path, text: text}
}

func (r *run) processOne(s source, out chan<- output) {
	if r.stop.Err() != nil {
		return
	}
	n := 0
	for unit, err := range r.cfg.synth.Units(r.ctx, s.text) {
		if err != nil {
			r.fail(StageProcess, s.path, "", err)
			return
		}
		if r.stop.Err() != nil {
			return
		}
		n++
		r.generated.Add(1)
		out <- output{path: s.path, unit: unit}
	}
	r.observe(Event{Kind: EventGenerated, Stage: StageProcess, Path: s.path, Units: n})
}

func (r *run) writeOne(o output) {
	if r.stop.Err() != nil {
		return
	}
	if first, ok := r.claim(o.unit.RelativePath, o.path); !ok {
		r.fail(StageWrite, o.path, o.unit.RelativePath, skerrors.Newf(skerrors.DestinationUnavailable,
			"%s is already generated from %s; use --namespace-dirs to separate classes with the same name",
			o.unit.RelativePath, first))
		return
	}
	if err := r.cfg.writer.WriteText(r.ctx, o.unit.RelativePath, o.unit.Content); err != nil {
		r.fail(StageWrite, o.path, o.unit.RelativePath, err)
		return
	}
	r.written.Add(1)
	r.observe(Event{Kind: EventWritten, Stage: StageWrite, Path: o.path, RelativePath: o.unit.RelativePath})
}

func (r *run) fail(stage Stage, path, rel string, err error) {
	// Cancellation by the caller is reported once, at the end of the run.
	if r.ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return
	}

	unitErr := &UnitError{Stage: stage, Path: path, Err: err}
	r.log.Warn("Unit failed",
		"stage", string(stage),
		"path", path,
		"code", string(skerrors.CodeOf(err)),
		"error", err.Error(),
	)
	r.record(unitErr)
	r.observe(Event{Kind: EventFailed, Stage: stage, Path: path, RelativePath: rel, Err: unitErr})

	if r.cfg.failFast {
		r.halt()
	}
}

// claim reserves rel for path. It reports the earlier claimant when rel is
// already taken.
func (r *run) claim(rel, path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if first, taken := r.claims[rel]; taken {
		return first, false
	}
	r.claims[rel] = path
	return "", true
}

func (r *run) record(err error) {
	r.mu.Lock()
	r.faults = append(r.faults, err)
	r.mu.Unlock()
}

func (r *run) observe(e Event) {
	if r.cfg.observer != nil {
		r.cfg.observer.Observe(e)
	}
}
