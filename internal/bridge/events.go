package bridge

import (
	"strings"
	"sync"
	"time"
)

// EventEnvelope wraps an event with the submission it belongs to and
// when it was emitted.
type EventEnvelope struct {
	SubmissionID string
	Event        any
	Timestamp    time.Time
}

// EventType extracts a dispatch key from an envelope's event. Events
// that don't implement it are only visible to global listeners.
type typedEvent interface {
	EventType() string
}

// EventQueue fans out envelopes to listeners without ever blocking the
// producer: Emit hands off to a goroutine per listener group so a slow
// or panicking listener cannot stall the bridge's run loop. It also
// retains a bounded ring of recent envelopes for late-attaching
// listeners and a one-shot Once helper.
type EventQueue struct {
	mu       sync.Mutex
	global   []func(EventEnvelope)
	typed    map[string][]func(EventEnvelope)
	recent   []EventEnvelope
	recentCap int
}

// NewEventQueue creates an event queue with the given recent-events ring
// capacity; a non-positive capacity defaults to 100.
func NewEventQueue(recentCapacity int) *EventQueue {
	if recentCapacity <= 0 {
		recentCapacity = 100
	}
	return &EventQueue{
		typed:     make(map[string][]func(EventEnvelope)),
		recentCap: recentCapacity,
	}
}

// OnAny registers a listener invoked for every emitted envelope.
func (q *EventQueue) OnAny(listener func(EventEnvelope)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.global = append(q.global, listener)
}

// On registers a listener invoked only for envelopes whose event
// implements EventType() and matches eventType.
func (q *EventQueue) On(eventType string, listener func(EventEnvelope)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.typed[eventType] = append(q.typed[eventType], listener)
}

// Once blocks until an envelope of eventType arrives or timeout elapses
// (no timeout if timeout <= 0), returning the envelope and whether it
// arrived in time.
func (q *EventQueue) Once(eventType string, timeout time.Duration) (EventEnvelope, bool) {
	ch := make(chan EventEnvelope, 1)
	var once sync.Once
	q.On(eventType, func(env EventEnvelope) {
		once.Do(func() {
			select {
			case ch <- env:
			default:
			}
		})
	})

	if timeout <= 0 {
		return <-ch, true
	}
	select {
	case env := <-ch:
		return env, true
	case <-time.After(timeout):
		return EventEnvelope{}, false
	}
}

// Emit dispatches event against submissionID to all matching listeners
// and appends it to the recent-events ring. Dispatch is fire-and-forget:
// a listener that panics does not affect the producer or other
// listeners.
func (q *EventQueue) Emit(submissionID string, event any) {
	env := EventEnvelope{SubmissionID: submissionID, Event: event, Timestamp: time.Now()}

	q.mu.Lock()
	q.recent = append(q.recent, env)
	if len(q.recent) > q.recentCap {
		q.recent = q.recent[len(q.recent)-q.recentCap:]
	}
	listeners := make([]func(EventEnvelope), len(q.global))
	copy(listeners, q.global)
	if te, ok := event.(typedEvent); ok {
		listeners = append(listeners, q.typed[te.EventType()]...)
	}
	q.mu.Unlock()

	for _, l := range listeners {
		go safeInvoke(l, env)
	}
}

func safeInvoke(listener func(EventEnvelope), env EventEnvelope) {
	defer func() { _ = recover() }()
	listener(env)
}

// Recent returns a snapshot of the recent-events ring, oldest first.
func (q *EventQueue) Recent() []EventEnvelope {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]EventEnvelope, len(q.recent))
	copy(out, q.recent)
	return out
}

// ErrorEvent is emitted against a submission when its operation handler
// panics or returns an error. Recoverable is always true: handler
// errors never stop the bridge's run loop.
type ErrorEvent struct {
	Code        string
	Message     string
	Recoverable bool
	Stack       string
}

func (ErrorEvent) EventType() string { return "error" }

func newOperationHandlerError(message, stack string) ErrorEvent {
	return ErrorEvent{
		Code:        "OPERATION_HANDLER_ERROR",
		Message:     strings.TrimSpace(message),
		Recoverable: true,
		Stack:       stack,
	}
}
