package decoder

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrEmptyPayload is returned by an engine that located a code with no text.
var ErrEmptyPayload = errors.New("empty payload")

// Engine is one decoding strategy.
type Engine interface {
	Name() string
	Decode(img image.Image) (string, error)
}

// EngineFunc adapts a function into an Engine.
type EngineFunc struct {
	ID string
	Fn func(img image.Image) (string, error)
}

// Name implements Engine.
func (e EngineFunc) Name() string { return e.ID }

// Decode implements Engine.
func (e EngineFunc) Decode(img image.Image) (string, error) { return e.Fn(img) }

type fastEngine struct{}

// Fast is a single-orientation reader with default hints.
func Fast() Engine { return fastEngine{} }

func (fastEngine) Name() string { return "fast" }

func (fastEngine) Decode(img image.Image) (string, error) {
	return readQR(img, nil)
}

type robustEngine struct{}

// Robust retries with TRY_HARDER across the four right-angle rotations and
// finally on the inverted image, for light-on-dark codes.
func Robust() Engine { return robustEngine{} }

func (robustEngine) Name() string { return "robust" }

func (robustEngine) Decode(img image.Image) (string, error) {
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	candidates := []func(image.Image) image.Image{
		func(i image.Image) image.Image { return i },
		func(i image.Image) image.Image { return imaging.Rotate90(i) },
		func(i image.Image) image.Image { return imaging.Rotate180(i) },
		func(i image.Image) image.Image { return imaging.Rotate270(i) },
		func(i image.Image) image.Image { return imaging.Invert(i) },
	}
	var lastErr error
	for _, transform := range candidates {
		text, err := readQR(transform(img), hints)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func readQR(img image.Image, hints map[gozxing.DecodeHintType]interface{}) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", err
	}
	text := result.GetText()
	if text == "" {
		return "", ErrEmptyPayload
	}
	return text, nil
}
