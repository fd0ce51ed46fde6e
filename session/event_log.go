package session

import (
	"sync"

	"github.com/hupe1980/agenttree/core"
)

// EventLog is a volatile run-id -> events store safe for concurrent access.
// Returned slices are copies so callers cannot mutate internal state.
type EventLog struct {
	mu   sync.RWMutex
	runs map[string][]core.Event
}

// NewEventLog constructs an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{runs: make(map[string][]core.Event)}
}

// AppendEvent adds an event to its run, creating the run lazily.
func (l *EventLog) AppendEvent(ev core.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[ev.RunID] = append(l.runs[ev.RunID], ev)
}

// Events returns the events of a run in append order.
func (l *EventLog) Events(runID string) []core.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	evs := l.runs[runID]
	out := make([]core.Event, len(evs))
	copy(out, evs)
	return out
}

// Filter returns the events of a run for which keep returns true.
func (l *EventLog) Filter(runID string, keep func(core.Event) bool) []core.Event {
	var out []core.Event
	for _, ev := range l.Events(runID) {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Runs lists the known run ids.
func (l *EventLog) Runs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.runs))
	for id := range l.runs {
		ids = append(ids, id)
	}
	return ids
}

// Delete drops a run's events.
func (l *EventLog) Delete(runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.runs, runID)
}
