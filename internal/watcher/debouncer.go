package watcher

import (
	"sync"
	"time"
)

// BatchDebouncer collects events and emits them as one batch once no new
// event has arrived for the configured delay.
type BatchDebouncer struct {
	delay  time.Duration
	emit   func([]Event)
	mu     sync.Mutex
	timer  *time.Timer
	events []Event
}

// NewBatchDebouncer creates a new batch debouncer
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{delay: delay, emit: emit}
}

// Add adds an event to the batch and restarts the quiet period.
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func (b *BatchDebouncer) take() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	events := b.events
	b.events = nil
	return events
}

func (b *BatchDebouncer) flush() {
	if events := b.take(); len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// Cancel drops any pending events.
func (b *BatchDebouncer) Cancel() {
	b.take()
}

// Flush immediately emits any pending events
func (b *BatchDebouncer) Flush() {
	b.flush()
}

// Pending returns the number of events waiting to be emitted.
func (b *BatchDebouncer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
