package testutil

import (
	"sync"
	"time"

	"github.com/hupe1980/qrscan/core"
)

// Recorder is a core.Delegate that keeps every callback in order.
type Recorder struct {
	mu      sync.Mutex
	events  []core.Event
	changed chan struct{}
}

var _ core.Delegate = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

func (r *Recorder) add(ev core.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
}

// OnScanned implements core.Delegate.
func (r *Recorder) OnScanned(h core.Handle, code string) {
	ev := core.NewEvent(core.EventScanned, h)
	ev.Code = code
	r.add(ev)
}

// OnCancelled implements core.Delegate.
func (r *Recorder) OnCancelled(h core.Handle, reason error) {
	ev := core.NewEvent(core.EventCancelled, h)
	ev.Reason = reason
	r.add(ev)
}

// OnPickerPresented implements core.Delegate.
func (r *Recorder) OnPickerPresented(h core.Handle) {
	r.add(core.NewEvent(core.EventPickerPresented, h))
}

// OnPickerFailed implements core.Delegate.
func (r *Recorder) OnPickerFailed(h core.Handle, description string) {
	ev := core.NewEvent(core.EventPickerFailed, h)
	ev.Description = description
	r.add(ev)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []core.EventKind {
	evs := r.Events()
	out := make([]core.EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

// Terminals returns only scanned and cancelled events.
func (r *Recorder) Terminals() []core.Event {
	var out []core.Event
	for _, ev := range r.Events() {
		if ev.IsTerminal() {
			out = append(out, ev)
		}
	}
	return out
}

// WaitFor blocks until an event of kind has been recorded or timeout passes.
func (r *Recorder) WaitFor(kind core.EventKind, timeout time.Duration) (core.Event, bool) {
	deadline := time.After(timeout)
	for {
		r.mu.Lock()
		for _, ev := range r.events {
			if ev.Kind == kind {
				r.mu.Unlock()
				return ev, true
			}
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return core.Event{}, false
		}
	}
}

// WaitTerminal blocks until a scanned or cancelled event arrives.
func (r *Recorder) WaitTerminal(timeout time.Duration) (core.Event, bool) {
	deadline := time.After(timeout)
	for {
		r.mu.Lock()
		for _, ev := range r.events {
			if ev.IsTerminal() {
				r.mu.Unlock()
				return ev, true
			}
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-deadline:
			return core.Event{}, false
		}
	}
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind core.EventKind) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
