// Package decoder extracts QR payloads from still images with an ordered
// chain of engines. The first engine returning a non-empty payload wins;
// engine errors and panics count as "no code".
package decoder

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/logging"
)

// Options configures a Decoder.
type Options struct {
	// Engines are tried in order. Defaults to Fast then Robust.
	Engines []Engine
	Logger  logging.Logger
}

// Decoder is stateless and safe for concurrent use.
type Decoder struct {
	engines []Engine
	logger  logging.Logger
}

var _ core.Decoder = (*Decoder)(nil)

// New creates a Decoder.
func New(optFns ...func(o *Options)) *Decoder {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if len(opts.Engines) == 0 {
		opts.Engines = []Engine{Fast(), Robust()}
	}
	return &Decoder{
		engines: append([]Engine(nil), opts.Engines...),
		logger:  logging.With(opts.Logger, "decoder"),
	}
}

// WithEngines overrides the engine chain.
func WithEngines(engines ...Engine) func(o *Options) {
	return func(o *Options) { o.Engines = engines }
}

// Decode implements core.Decoder.
func (d *Decoder) Decode(img image.Image) (string, bool) {
	if img == nil || img.Bounds().Empty() {
		return "", false
	}
	for _, e := range d.engines {
		text, err := d.try(e, img)
		if err == nil && text != "" {
			return text, true
		}
	}
	return "", false
}

func (d *Decoder) try(e Engine, img image.Image) (text string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("engine %s panicked: %v", e.Name(), r)
		}
		d.logDecode(e.Name(), time.Since(start), err == nil && text != "", err)
	}()
	return e.Decode(img)
}

func (d *Decoder) logDecode(engine string, dur time.Duration, ok bool, err error) {
	if sl, isScan := d.logger.(*logging.ScanLogger); isScan {
		sl.LogDecode(engine, dur, ok, err)
		return
	}
	if err != nil {
		d.logger.Debug("Decode attempt", "engine", engine, "success", ok, "error", err.Error())
		return
	}
	d.logger.Debug("Decode attempt", "engine", engine, "success", ok)
}

// DecodeBytes decodes an encoded still image and scans it for a code.
func (d *Decoder) DecodeBytes(data []byte) (string, bool) {
	img, err := LoadImage(data)
	if err != nil {
		return "", false
	}
	return d.Decode(img)
}

// LoadImage decodes PNG, JPEG, GIF, BMP or TIFF data, applying the EXIF
// orientation when present.
func LoadImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, core.ErrAssetUnreadable
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrAssetUnreadable, err)
	}
	return img, nil
}
