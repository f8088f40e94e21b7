package core

import (
	"time"

	"github.com/google/uuid"
)

// DetectionEvent is one candidate code offered to a session's dedup gate.
// It is ephemeral; at most one per session ever passes the gate.
type DetectionEvent struct {
	Source    Source
	Code      string
	Timestamp time.Time
}

// NewDetectionEvent stamps a detection with the current UTC time.
func NewDetectionEvent(source Source, code string) DetectionEvent {
	return DetectionEvent{Source: source, Code: code, Timestamp: time.Now().UTC()}
}

// TerminalKind discriminates the TerminalEvent sum type.
type TerminalKind string

const (
	// TerminalScanned means a code passed the dedup gate.
	TerminalScanned TerminalKind = "scanned"
	// TerminalCancelled means the session ended without a code.
	TerminalCancelled TerminalKind = "cancelled"
)

// TerminalEvent is the final, at-most-once outcome of a scan session.
//
// Contract:
//   - Kind == TerminalScanned: Code is non-empty and Source tells which path won
//   - Kind == TerminalCancelled: Reason explains why (user close, no device, ...)
type TerminalEvent struct {
	Kind      TerminalKind
	Code      string
	Source    Source
	Reason    error
	Timestamp time.Time
}

// Scanned builds a successful terminal event from the winning detection.
func Scanned(d DetectionEvent) TerminalEvent {
	return TerminalEvent{Kind: TerminalScanned, Code: d.Code, Source: d.Source, Timestamp: time.Now().UTC()}
}

// Cancelled builds a cancellation terminal event.
func Cancelled(reason error) TerminalEvent {
	return TerminalEvent{Kind: TerminalCancelled, Reason: reason, Timestamp: time.Now().UTC()}
}

// IsScanned reports whether the session produced a code.
func (t TerminalEvent) IsScanned() bool { return t.Kind == TerminalScanned }

// EventKind names an outbound callback.
type EventKind string

// Outbound event kinds, one per Delegate method.
const (
	EventScanned         EventKind = "scanned"
	EventCancelled       EventKind = "cancelled"
	EventPickerPresented EventKind = "picker_presented"
	EventPickerFailed    EventKind = "picker_failed"
)

// Event is the channel form of a Delegate callback. After emission it should
// be treated as immutable.
type Event struct {
	ID          string    `json:"id"`
	Kind        EventKind `json:"kind"`
	Handle      Handle    `json:"handle"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Reason      error     `json:"-"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEvent creates a bare event for the given session.
func NewEvent(kind EventKind, h Handle) Event {
	return Event{ID: NewID(), Kind: kind, Handle: h, Timestamp: time.Now().UTC()}
}

// IsTerminal reports whether the event ends its session.
func (e Event) IsTerminal() bool {
	return e.Kind == EventScanned || e.Kind == EventCancelled
}

// Terminal converts a terminal event back into its TerminalEvent form.
// The boolean is false for informational events.
func (e Event) Terminal() (TerminalEvent, bool) {
	switch e.Kind {
	case EventScanned:
		return TerminalEvent{Kind: TerminalScanned, Code: e.Code, Timestamp: e.Timestamp}, true
	case EventCancelled:
		return TerminalEvent{Kind: TerminalCancelled, Reason: e.Reason, Timestamp: e.Timestamp}, true
	default:
		return TerminalEvent{}, false
	}
}

// NewID returns a random identifier for handles, events and assets.
func NewID() string { return uuid.NewString() }
