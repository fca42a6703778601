package agent

import (
	"sync"
	"time"
)

// EventKind identifies the type of progress event.
type EventKind string

const (
	EventDirective       EventKind = "directive"
	EventUtterance       EventKind = "utterance"
	EventCapabilityStart EventKind = "capability_start"
	EventCapabilityEnd   EventKind = "capability_end"
	EventReminder        EventKind = "reminder"
	EventSubagentStart   EventKind = "subagent_start"
	EventSubagentEnd     EventKind = "subagent_end"
	EventLoopDone        EventKind = "loop_done"
	EventError           EventKind = "error"
)

// Event is a progress notification for the host application. Events are a
// side channel: they are not part of any conversation and carry no
// correctness weight.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Emitter delivers events to the host over a buffered channel. Emit never
// blocks the loop: when the buffer is full the event is dropped. A nil
// *Emitter is valid and discards everything.
type Emitter struct {
	sessionID string
	ch        chan Event
	closed    bool
	mu        sync.Mutex
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(sessionID string, bufferSize int) *Emitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Emitter{sessionID: sessionID, ch: make(chan Event, bufferSize)}
}

// Emit sends an event. Safe on a nil or closed emitter.
func (e *Emitter) Emit(kind EventKind, data map[string]interface{}) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{Kind: kind, Timestamp: time.Now(), SessionID: e.sessionID, Data: data}
	select {
	case e.ch <- event:
	default:
		// Buffer full; drop rather than block the loop.
	}
}

// Events returns the read-only event channel.
func (e *Emitter) Events() <-chan Event {
	if e == nil {
		return nil
	}
	return e.ch
}

// Close closes the channel. Safe to call multiple times.
func (e *Emitter) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
