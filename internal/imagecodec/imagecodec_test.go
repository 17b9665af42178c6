package imagecodec

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBase64(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestDecodeOpaquePNG(t *testing.T) {
	img, err := Decode(pngBase64(t, solid(5, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})))
	require.NoError(t, err)

	assert.Equal(t, 5, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.False(t, img.HasAlpha)
	assert.Equal(t, 3, img.Channels)
	assert.Equal(t, BitsPerSample, img.BitsPerSample)
	assert.Equal(t, 16, img.Stride, "rows of 15 bytes pad to 16")
	assert.Len(t, img.Pix, 32)
	assert.Equal(t, []byte{10, 20, 30}, img.Pix[0:3])
}

func TestDecodeTranslucentPNG(t *testing.T) {
	img, err := Decode(pngBase64(t, solid(3, 3, color.NRGBA{R: 200, A: 128})))
	require.NoError(t, err)

	assert.True(t, img.HasAlpha)
	assert.Equal(t, 4, img.Channels)
	assert.Equal(t, 12, img.Stride)
	assert.Equal(t, []byte{200, 0, 0, 128}, img.Pix[0:4])
}

func TestDecodeToleratesLineBreaksAndMissingPadding(t *testing.T) {
	encoded := pngBase64(t, solid(4, 4, color.NRGBA{G: 255, A: 255}))

	wrapped := encoded[:10] + "\n" + encoded[10:]
	_, err := Decode(wrapped)
	require.NoError(t, err)

	_, err = Decode(strings.TrimRight(encoded, "="))
	require.NoError(t, err)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"invalid base64", "not-valid-base64!!!"},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.input)
			require.ErrorIs(t, err, ErrDecode)
			assert.Nil(t, img)
		})
	}
}

func TestRawRoundTrip(t *testing.T) {
	for _, c := range []color.NRGBA{{R: 1, G: 2, B: 3, A: 255}, {R: 1, G: 2, B: 3, A: 7}} {
		src := FromImage(solid(7, 3, c))

		data, err := Encode(src)
		require.NoError(t, err)

		got, err := DecodeRaw(data)
		require.NoError(t, err)
		assert.Equal(t, src.Width, got.Width)
		assert.Equal(t, src.Height, got.Height)
		assert.Equal(t, src.HasAlpha, got.HasAlpha)
		assert.Equal(t, src.Stride, got.Stride)
		assert.Equal(t, src.Channels, got.Channels)
		assert.Equal(t, src.Pix, got.Pix)
	}
}

func TestPNGRoundTripKeepsMetadata(t *testing.T) {
	src := FromImage(solid(9, 4, color.NRGBA{B: 90, A: 40}))

	encoded, err := EncodeBase64(src)
	require.NoError(t, err)

	got, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, src.Width, got.Width)
	assert.Equal(t, src.Height, got.Height)
	assert.Equal(t, src.HasAlpha, got.HasAlpha)
}

func TestDecodeRawRejectsCorruptBuffers(t *testing.T) {
	data, err := Encode(FromImage(solid(2, 2, color.NRGBA{A: 255})))
	require.NoError(t, err)

	_, err = DecodeRaw(data[:len(data)-1])
	require.ErrorIs(t, err, ErrDecode, "truncated pixels")

	_, err = DecodeRaw(append(append([]byte{}, data...), 0))
	require.ErrorIs(t, err, ErrDecode, "trailing bytes")

	bad := append([]byte{}, data...)
	bad[0] = 'X'
	_, err = DecodeRaw(bad)
	require.ErrorIs(t, err, ErrDecode, "magic")

	_, err = DecodeRaw(nil)
	require.ErrorIs(t, err, ErrDecode, "empty")
}

func TestNRGBAInvertsFromImage(t *testing.T) {
	src := solid(3, 2, color.NRGBA{R: 50, G: 60, B: 70, A: 255})
	got := FromImage(src).NRGBA()

	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.Pix, got.Pix)
}
