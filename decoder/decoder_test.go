package decoder_test

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/qrscan/core"
	"github.com/hupe1980/qrscan/decoder"
	"github.com/hupe1980/qrscan/internal/testutil"
)

func TestDecodeHello(t *testing.T) {
	d := decoder.New()
	code, ok := d.Decode(testutil.QRImage(t, "HELLO", 256))
	require.True(t, ok)
	assert.Equal(t, "HELLO", code)
}

func TestDecodeBlankImage(t *testing.T) {
	d := decoder.New()
	code, ok := d.Decode(testutil.BlankImage(256))
	assert.False(t, ok)
	assert.Empty(t, code)
}

func TestDecodeNilImage(t *testing.T) {
	_, ok := decoder.New().Decode(nil)
	assert.False(t, ok)
}

func TestRobustFindsRotatedCode(t *testing.T) {
	img := imaging.Rotate90(testutil.QRImage(t, "ROTATED", 256))
	d := decoder.New(decoder.WithEngines(decoder.Robust()))
	code, ok := d.Decode(img)
	require.True(t, ok)
	assert.Equal(t, "ROTATED", code)
}

func TestRobustFindsInvertedCode(t *testing.T) {
	img := imaging.Invert(testutil.QRImage(t, "INVERTED", 256))
	d := decoder.New(decoder.WithEngines(decoder.Robust()))
	code, ok := d.Decode(img)
	require.True(t, ok)
	assert.Equal(t, "INVERTED", code)
}

func TestEngineOrderAndFallback(t *testing.T) {
	var calls []string
	failing := decoder.EngineFunc{ID: "a", Fn: func(image.Image) (string, error) {
		calls = append(calls, "a")
		return "", errors.New("miss")
	}}
	empty := decoder.EngineFunc{ID: "b", Fn: func(image.Image) (string, error) {
		calls = append(calls, "b")
		return "", nil
	}}
	winning := decoder.EngineFunc{ID: "c", Fn: func(image.Image) (string, error) {
		calls = append(calls, "c")
		return "WIN", nil
	}}
	never := decoder.EngineFunc{ID: "d", Fn: func(image.Image) (string, error) {
		calls = append(calls, "d")
		return "LATE", nil
	}}

	d := decoder.New(decoder.WithEngines(failing, empty, winning, never))
	code, ok := d.Decode(testutil.BlankImage(8))
	require.True(t, ok)
	assert.Equal(t, "WIN", code)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestPanickingEngineIsSwallowed(t *testing.T) {
	boom := decoder.EngineFunc{ID: "boom", Fn: func(image.Image) (string, error) { panic("bad luminance") }}
	ok := decoder.EngineFunc{ID: "ok", Fn: func(image.Image) (string, error) { return "AFTER", nil }}

	d := decoder.New(decoder.WithEngines(boom, ok))
	code, found := d.Decode(testutil.BlankImage(8))
	require.True(t, found)
	assert.Equal(t, "AFTER", code)
}

func TestDecodeBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.QRImage(t, "FROM-PNG", 200)))

	code, ok := decoder.New().DecodeBytes(buf.Bytes())
	require.True(t, ok)
	assert.Equal(t, "FROM-PNG", code)
}

func TestLoadImageRejectsGarbage(t *testing.T) {
	_, err := decoder.LoadImage([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrAssetUnreadable))

	_, err = decoder.LoadImage(nil)
	assert.ErrorIs(t, err, core.ErrAssetUnreadable)
}
