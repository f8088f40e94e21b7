package testutil

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/hupe1980/qrscan/core"
)

// ErrOpenFailed is returned by a FakeDevice configured to fail OpenInput.
var ErrOpenFailed = errors.New("fake device: open failed")

// FakeDevice is an in-memory camera. Tests push frames through Source once
// the pipeline is running.
type FakeDevice struct {
	id      string
	failErr error

	mu     sync.Mutex
	opens  int
	source *FakeSource
}

var (
	_ core.Device      = (*FakeDevice)(nil)
	_ core.FrameSource = (*FakeSource)(nil)
)

// NewFakeDevice returns a working device.
func NewFakeDevice(id string) *FakeDevice { return &FakeDevice{id: id} }

// NewFailingDevice returns a device whose OpenInput fails with err
// (ErrOpenFailed when nil).
func NewFailingDevice(id string, err error) *FakeDevice {
	if err == nil {
		err = ErrOpenFailed
	}
	return &FakeDevice{id: id, failErr: err}
}

// ID implements core.Device.
func (d *FakeDevice) ID() string { return d.id }

// OpenInput implements core.Device.
func (d *FakeDevice) OpenInput() (core.FrameSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens++
	if d.failErr != nil {
		return nil, d.failErr
	}
	d.source = &FakeSource{}
	return d.source, nil
}

// Opens returns the number of OpenInput calls.
func (d *FakeDevice) Opens() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opens
}

// Source returns the most recently opened source, or nil.
func (d *FakeDevice) Source() *FakeSource {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.source
}

// FakeSource counts lifecycle calls and forwards pushed frames while started.
type FakeSource struct {
	mu      sync.Mutex
	sink    func(core.Frame)
	starts  int
	stops   int
	closed  bool
	history []string
}

// Start implements core.FrameSource.
func (s *FakeSource) Start(sink func(core.Frame)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("fake source: closed")
	}
	s.sink = sink
	s.starts++
	s.history = append(s.history, "start")
	return nil
}

// Stop implements core.FrameSource.
func (s *FakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = nil
	s.stops++
	s.history = append(s.history, "stop")
}

// Close implements core.FrameSource.
func (s *FakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = nil
	s.closed = true
	s.history = append(s.history, "close")
	return nil
}

// Push delivers a frame when the source is started. It reports whether the
// frame was delivered.
func (s *FakeSource) Push(frame core.Frame) bool {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return false
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now()
	}
	sink(frame)
	return true
}

// PushCode delivers a frame carrying a hardware QR metadata object.
func (s *FakeSource) PushCode(code string) bool {
	return s.Push(core.Frame{Metadata: []core.MetadataObject{{Type: core.SymbologyQR, Value: code}}})
}

// PushImage delivers an image-only frame.
func (s *FakeSource) PushImage(img image.Image) bool {
	return s.Push(core.Frame{Image: img})
}

// Running reports whether the source is currently started.
func (s *FakeSource) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil
}

// Counts returns start and stop call counts.
func (s *FakeSource) Counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}

// Closed reports whether Close was called.
func (s *FakeSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// History returns the lifecycle calls in order.
func (s *FakeSource) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// FakeProvider resolves a fixed device. A nil Device yields ErrNoCameraDevice.
type FakeProvider struct {
	Device core.Device

	mu    sync.Mutex
	calls int
}

// DefaultDevice implements core.DeviceProvider.
func (p *FakeProvider) DefaultDevice() (core.Device, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.Device == nil {
		return nil, core.ErrNoCameraDevice
	}
	return p.Device, nil
}

// Calls returns the number of lookups.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
