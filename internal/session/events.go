package session

import (
	"time"

	"github.com/idelchi/dirsize/internal/dirsize"
)

// EventType identifies the kind of a session event.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventWarning   EventType = "warning"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
	EventFailed    EventType = "failed"
	EventFinished  EventType = "finished"
)

// ErrorKind classifies a failed session.
type ErrorKind string

const (
	// KindInvalidInput means the root or the options were rejected before traversal.
	KindInvalidInput ErrorKind = "INVALID_INPUT"
	// KindUnexpected means traversal aborted for an unforeseen reason.
	KindUnexpected ErrorKind = "UNEXPECTED"
)

// Cancellation reasons reported in CancelledEvent.
const (
	ReasonRequested = "cancelled by request"
	ReasonStalled   = "stalled: no progress observed"
	ReasonContext   = "context done"
)

// Event is the base interface for all session events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// ProgressEvent reports the entry just visited.
type ProgressEvent struct {
	BaseEvent
	Path        string
	RunningSize uint64 // bytes counted so far in the whole scan
}

// WarningEvent is a non-fatal advisory, such as a skipped cloud folder.
type WarningEvent struct {
	BaseEvent
	Warning dirsize.Warning
}

// CompletedEvent carries the finished tree.
type CompletedEvent struct {
	BaseEvent
	Tree    *dirsize.Node
	Elapsed time.Duration
}

// CancelledEvent reports a cancelled scan. No tree is delivered.
type CancelledEvent struct {
	BaseEvent
	Reason string
}

// FailedEvent reports a scan that could not run or aborted.
type FailedEvent struct {
	BaseEvent
	Kind    ErrorKind
	Message string
}

// FinishedEvent is always the last event of a session.
type FinishedEvent struct {
	BaseEvent
}

// IsTerminal reports whether e is a Completed, Cancelled or Failed event.
func IsTerminal(e Event) bool {
	switch e.Type() {
	case EventCompleted, EventCancelled, EventFailed:
		return true
	default:
		return false
	}
}

func base(t EventType, now time.Time) BaseEvent {
	return BaseEvent{EventType: t, Time: now}
}
