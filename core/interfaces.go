package core

import (
	"context"
	"image"
	"time"
)

// Executor runs submitted work. The main/UI context and the per-session
// capture queue are both executors; implementations must run work in
// submission order and never run two submissions concurrently.
type Executor interface {
	Async(fn func())
}

// Device is a capture device handle (a camera).
type Device interface {
	ID() string
	// OpenInput builds the device input. An error here is a configuration
	// failure and ends the session as cancelled.
	OpenInput() (FrameSource, error)
}

// DeviceProvider resolves the default capture device. It returns
// ErrNoCameraDevice when none is available.
type DeviceProvider interface {
	DefaultDevice() (Device, error)
}

// FrameSource is an opened device input. Start and Stop are the only calls
// that touch the physical device; Close releases it.
type FrameSource interface {
	Start(sink func(Frame)) error
	Stop()
	Close() error
}

// Decoder turns a still image into a code string.
type Decoder interface {
	Decode(img image.Image) (string, bool)
}

// Presenter is the opaque hosting context an album picker is shown from.
type Presenter any

// Delegate receives the outbound events of every session. All methods are
// invoked on the main executor. OnScanned and OnCancelled are mutually
// exclusive and delivered at most once per handle.
type Delegate interface {
	OnScanned(h Handle, code string)
	OnCancelled(h Handle, reason error)
	OnPickerPresented(h Handle)
	// OnPickerFailed is informational; the session returns to live scanning.
	OnPickerFailed(h Handle, description string)
}

// NoOpDelegate discards every event.
type NoOpDelegate struct{}

func (NoOpDelegate) OnScanned(Handle, string)      {}
func (NoOpDelegate) OnCancelled(Handle, error)     {}
func (NoOpDelegate) OnPickerPresented(Handle)      {}
func (NoOpDelegate) OnPickerFailed(Handle, string) {}

// Asset describes one image held by a PhotoLibrary.
type Asset struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// PhotoLibrary is the device photo library, the only persisted state a scan
// session touches. It is accessed exclusively through album providers.
// Implementations should be thread-safe.
type PhotoLibrary interface {
	Save(name string, data []byte) (Asset, error)
	Get(id string) ([]byte, error)
	List() ([]Asset, error)
	Delete(id string) error
}

// ScanSession is the inbound surface of a single scan session.
type ScanSession interface {
	Handle() Handle
	Start()
	NotifyBecameVisible()
	NotifyBecameHidden()
	RequestClose()
	RequestAlbumPick(presenter Presenter)
	State() State
	// Destroy blocks until all device resources are released.
	Destroy(ctx context.Context) error
}

// SessionStore tracks live sessions by handle.
type SessionStore interface {
	Put(s ScanSession) error
	Get(h Handle) (ScanSession, error)
	Delete(h Handle) error
	List() []ScanSession
	Len() int
}
