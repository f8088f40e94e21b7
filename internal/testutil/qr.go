package testutil

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// QRImage renders text as a size x size QR code with a quiet zone.
func QRImage(t testing.TB, text string, size int) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	if err != nil {
		t.Fatalf("encode %q: %v", text, err)
	}
	return imaging.Clone(matrix)
}

// BlankImage returns a uniform white image.
func BlankImage(size int) image.Image {
	return imaging.New(size, size, color.White)
}
