package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels what happened during a run.
type EventType string

const (
	EventActivated   EventType = "agent_activated"
	EventTurnStarted EventType = "turn_started"
	EventDirective   EventType = "directive_executed"
	EventRecovered   EventType = "recoverable_error"
	EventViolation   EventType = "state_violation"
	EventFinished    EventType = "agent_finished"
	EventRunFinished EventType = "run_finished"
)

// Event is an immutable record of something the orchestrator observed. It
// captures correlation (RunID, ID, Agent), the directive verb when relevant,
// free text (response, result or error message) and a UTC timestamp.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Type      EventType `json:"type"`
	Agent     string    `json:"agent"`
	Verb      string    `json:"verb,omitempty"`
	Text      string    `json:"text,omitempty"`
	ErrorCode Code      `json:"error_code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates an event bound to a run and agent.
func NewEvent(runID string, typ EventType, agent string) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Type:      typ,
		Agent:     agent,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorEvent creates an event describing err. Recoverable errors become
// EventRecovered, everything else EventViolation.
func NewErrorEvent(runID, agent string, err error) Event {
	typ := EventViolation
	if IsRecoverable(err) {
		typ = EventRecovered
	}
	ev := NewEvent(runID, typ, agent)
	ev.Text = err.Error()
	ev.ErrorCode = CodeOf(err)
	return ev
}

// NewID generates a new unique identifier for runs and events.
func NewID() string { return uuid.NewString() }

// IsError reports whether the event carries an error.
func (e Event) IsError() bool { return e.Type == EventRecovered || e.Type == EventViolation }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
