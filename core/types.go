package core

import (
	"fmt"
	"image"
	"time"
)

// Symbology identifies a barcode family a metadata output may report.
type Symbology string

const (
	// SymbologyQR is the only symbology a scan session decodes.
	SymbologyQR Symbology = "qr"
)

// Rect is a region expressed in normalized frame coordinates (0..1).
type Rect struct {
	X, Y, Width, Height float64
}

// FullFrame covers the whole frame and is the default region of interest.
var FullFrame = Rect{X: 0, Y: 0, Width: 1, Height: 1}

// IsFullFrame reports whether r covers the complete frame.
func (r Rect) IsFullFrame() bool {
	return r.X <= 0 && r.Y <= 0 && r.X+r.Width >= 1 && r.Y+r.Height >= 1
}

// Valid reports whether r lies within the unit square and has a positive area.
func (r Rect) Valid() bool {
	return r.X >= 0 && r.Y >= 0 && r.Width > 0 && r.Height > 0 && r.X+r.Width <= 1 && r.Y+r.Height <= 1
}

// Pixels maps r onto the given image bounds.
func (r Rect) Pixels(b image.Rectangle) image.Rectangle {
	w, h := float64(b.Dx()), float64(b.Dy())
	return image.Rect(
		b.Min.X+int(r.X*w),
		b.Min.Y+int(r.Y*h),
		b.Min.X+int((r.X+r.Width)*w),
		b.Min.Y+int((r.Y+r.Height)*h),
	)
}

// Source tells which input path produced a detection.
type Source string

const (
	// SourceCamera marks detections coming from the live capture pipeline.
	SourceCamera Source = "camera"
	// SourceAlbum marks detections decoded from a picked still image.
	SourceAlbum Source = "album"
)

// Handle is the opaque identifier of a scan session.
type Handle string

// String implements fmt.Stringer.
func (h Handle) String() string { return string(h) }

// NewHandle returns a fresh random session handle.
func NewHandle() Handle { return Handle(NewID()) }

// SessionConfig describes a scan session. It is immutable once the session is
// created; constructors copy it.
type SessionConfig struct {
	// Device overrides the device returned by the DeviceProvider.
	Device Device
	// Symbologies filters decoded codes. Only SymbologyQR is supported.
	Symbologies []Symbology
	// RegionOfInterest limits decoding to part of each frame. Zero means FullFrame.
	RegionOfInterest Rect
}

// DefaultSessionConfig returns a QR-only, full-frame configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{Symbologies: []Symbology{SymbologyQR}, RegionOfInterest: FullFrame}
}

// WithDefaults fills unset fields and returns a detached copy.
func (c SessionConfig) WithDefaults() SessionConfig {
	out := c
	if len(out.Symbologies) == 0 {
		out.Symbologies = []Symbology{SymbologyQR}
	} else {
		out.Symbologies = append([]Symbology(nil), c.Symbologies...)
	}
	if out.RegionOfInterest == (Rect{}) {
		out.RegionOfInterest = FullFrame
	}
	return out
}

// Validate checks the configuration after defaults have been applied.
func (c SessionConfig) Validate() error {
	for _, s := range c.Symbologies {
		if s != SymbologyQR {
			return fmt.Errorf("%w: unsupported symbology %q", ErrInvalidConfig, s)
		}
	}
	if c.RegionOfInterest != (Rect{}) && !c.RegionOfInterest.Valid() {
		return fmt.Errorf("%w: region of interest %+v outside the unit square", ErrInvalidConfig, c.RegionOfInterest)
	}
	return nil
}

// State is a scan session's position in its lifecycle.
type State int32

// Session states. Terminal is absorbing.
const (
	StateIdle State = iota
	StateConfiguring
	StateLive
	StatePickerPending
	StatePickerActive
	StateTerminal
)

// String returns the lower-case state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfiguring:
		return "configuring"
	case StateLive:
		return "live"
	case StatePickerPending:
		return "picker_pending"
	case StatePickerActive:
		return "picker_active"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// MetadataObject is a machine readable code reported by capture hardware.
type MetadataObject struct {
	Type  Symbology
	Value string
}

// Frame is a single sample produced by a FrameSource. Hardware that detects
// codes itself fills Metadata; otherwise Image is decoded in software.
type Frame struct {
	Image     image.Image
	Metadata  []MetadataObject
	Timestamp time.Time
}
