package capture

import (
	"image"
	"slices"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/logging"
)

// MetadataOutput extracts QR payloads from frames. Hardware metadata is
// used when the frame carries it; otherwise the image, cropped to the region
// of interest, goes through the Decoder. Detections are handed to the
// delegate on the delivery executor.
type MetadataOutput struct {
	decoder core.Decoder
	logger  logging.Logger

	mu       sync.RWMutex
	types    []core.Symbology
	roi      core.Rect
	delegate func(core.DetectionEvent)
	exec     core.Executor
}

var _ Output = (*MetadataOutput)(nil)

// NewMetadataOutput creates a silenced output. Call SetObjectTypes to enable it.
func NewMetadataOutput(dec core.Decoder, logger logging.Logger) *MetadataOutput {
	return &MetadataOutput{decoder: dec, logger: logging.OrNoOp(logger), roi: core.FullFrame}
}

// SetObjectTypes replaces the symbology filter. An empty list silences the output.
func (m *MetadataOutput) SetObjectTypes(types ...core.Symbology) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types = append([]core.Symbology(nil), types...)
}

// ObjectTypes returns the active filter.
func (m *MetadataOutput) ObjectTypes() []core.Symbology {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Symbology(nil), m.types...)
}

// SetRectOfInterest limits software decoding to r. The zero Rect means full frame.
func (m *MetadataOutput) SetRectOfInterest(r core.Rect) {
	if r == (core.Rect{}) {
		r = core.FullFrame
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roi = r
}

// SetDelegate installs the detection callback and the executor it runs on.
func (m *MetadataOutput) SetDelegate(fn func(core.DetectionEvent), exec core.Executor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delegate = fn
	m.exec = exec
}

// Consume implements Output.
func (m *MetadataOutput) Consume(frame core.Frame) {
	m.mu.RLock()
	enabled := slices.Contains(m.types, core.SymbologyQR)
	roi := m.roi
	fn, exec := m.delegate, m.exec
	m.mu.RUnlock()

	if !enabled || fn == nil {
		return
	}

	code, ok := m.extract(frame, roi)
	if !ok {
		return
	}
	ev := core.NewDetectionEvent(core.SourceCamera, code)
	if exec == nil {
		fn(ev)
		return
	}
	exec.Async(func() { fn(ev) })
}

func (m *MetadataOutput) extract(frame core.Frame, roi core.Rect) (string, bool) {
	// Only the first reported object counts.
	if len(frame.Metadata) > 0 {
		obj := frame.Metadata[0]
		if obj.Type == core.SymbologyQR && obj.Value != "" {
			return obj.Value, true
		}
		return "", false
	}
	if frame.Image == nil || m.decoder == nil {
		return "", false
	}
	img := frame.Image
	if !roi.IsFullFrame() {
		img = crop(img, roi)
	}
	code, ok := m.decoder.Decode(img)
	if !ok || code == "" {
		return "", false
	}
	return code, true
}

func crop(img image.Image, roi core.Rect) image.Image {
	r := roi.Pixels(img.Bounds())
	if r.Empty() {
		return img
	}
	return imaging.Crop(img, r)
}
