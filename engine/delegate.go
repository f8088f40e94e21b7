package engine

import "github.com/hupe1980/qrscan/core"

// DefaultEventBuffer is the ChannelDelegate buffer size used when none is given.
const DefaultEventBuffer = 16

// ChannelDelegate adapts Delegate callbacks to a stream of core.Event.
// Sends block once the buffer is full, which stalls the main executor; keep
// a consumer reading.
type ChannelDelegate struct {
	events chan core.Event
}

var _ core.Delegate = (*ChannelDelegate)(nil)

// NewChannelDelegate creates a delegate with the given buffer size.
func NewChannelDelegate(buffer int) *ChannelDelegate {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &ChannelDelegate{events: make(chan core.Event, buffer)}
}

// Events returns the receive side of the stream. It is never closed.
func (d *ChannelDelegate) Events() <-chan core.Event { return d.events }

// OnScanned implements core.Delegate.
func (d *ChannelDelegate) OnScanned(h core.Handle, code string) {
	ev := core.NewEvent(core.EventScanned, h)
	ev.Code = code
	d.events <- ev
}

// OnCancelled implements core.Delegate.
func (d *ChannelDelegate) OnCancelled(h core.Handle, reason error) {
	ev := core.NewEvent(core.EventCancelled, h)
	ev.Reason = reason
	d.events <- ev
}

// OnPickerPresented implements core.Delegate.
func (d *ChannelDelegate) OnPickerPresented(h core.Handle) {
	d.events <- core.NewEvent(core.EventPickerPresented, h)
}

// OnPickerFailed implements core.Delegate.
func (d *ChannelDelegate) OnPickerFailed(h core.Handle, description string) {
	ev := core.NewEvent(core.EventPickerFailed, h)
	ev.Description = description
	d.events <- ev
}

// MultiDelegate fans every callback out to several delegates in order.
type MultiDelegate []core.Delegate

var _ core.Delegate = MultiDelegate(nil)

// OnScanned implements core.Delegate.
func (m MultiDelegate) OnScanned(h core.Handle, code string) {
	for _, d := range m {
		d.OnScanned(h, code)
	}
}

// OnCancelled implements core.Delegate.
func (m MultiDelegate) OnCancelled(h core.Handle, reason error) {
	for _, d := range m {
		d.OnCancelled(h, reason)
	}
}

// OnPickerPresented implements core.Delegate.
func (m MultiDelegate) OnPickerPresented(h core.Handle) {
	for _, d := range m {
		d.OnPickerPresented(h)
	}
}

// OnPickerFailed implements core.Delegate.
func (m MultiDelegate) OnPickerFailed(h core.Handle, description string) {
	for _, d := range m {
		d.OnPickerFailed(h, description)
	}
}
