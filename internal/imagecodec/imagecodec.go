// ABOUTME: Converts base64 payload images into raw pixel buffers for notification servers.
// ABOUTME: Carries the width/height/stride/alpha/depth/channel metadata the image-data hint needs.

// Package imagecodec decodes inbound notification images and exposes them in
// the GdkPixbuf-style layout used by desktop notification servers.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder for app icons
	_ "image/jpeg" // JPEG decoder for previews
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Android frequently ships WebP bitmaps
)

// BitsPerSample is the only sample depth produced by this package.
const BitsPerSample = 8

// maxDimension bounds decoded images so a hostile payload cannot allocate
// an arbitrarily large canvas.
const maxDimension = 8192

// ErrDecode is returned when a payload image is not valid base64 or not a
// supported raster container.
var ErrDecode = errors.New("image decode failed")

// Image is a decoded raster in non-premultiplied RGB(A) byte order.
type Image struct {
	Width         int
	Height        int
	Stride        int
	Channels      int
	BitsPerSample int
	HasAlpha      bool
	Pix           []byte
}

// Decode base64-decodes text and parses the result as an image.
func Decode(text string) (*Image, error) {
	data, err := decodeBase64(text)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return FromImage(img), nil
}

// decodeBase64 accepts padded and unpadded standard base64. Line breaks are
// ignored because Android's Base64.DEFAULT wraps output at 76 columns.
func decodeBase64(text string) ([]byte, error) {
	clean := strings.Join(strings.Fields(text), "")
	if clean == "" {
		return nil, errors.New("empty input")
	}
	data, err := base64.StdEncoding.DecodeString(clean)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(clean); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// FromImage normalises img into an Image. Opaque sources become 3-channel RGB
// with rows padded to 4 bytes; anything else becomes 4-channel RGBA.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)

	hasAlpha := !nrgba.Opaque()
	out := &Image{
		Width:         b.Dx(),
		Height:        b.Dy(),
		BitsPerSample: BitsPerSample,
		HasAlpha:      hasAlpha,
	}

	if hasAlpha {
		out.Channels = 4
		out.Stride = 4 * out.Width
		out.Pix = make([]byte, out.Stride*out.Height)
		for y := 0; y < out.Height; y++ {
			copy(out.Pix[y*out.Stride:], nrgba.Pix[y*nrgba.Stride:y*nrgba.Stride+4*out.Width])
		}
		return out
	}

	out.Channels = 3
	out.Stride = rgbStride(out.Width)
	out.Pix = make([]byte, out.Stride*out.Height)
	for y := 0; y < out.Height; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < out.Width; x++ {
			copy(dst[3*x:3*x+3], src[4*x:4*x+3])
		}
	}
	return out
}

// rgbStride matches GdkPixbuf, which aligns every row to 4 bytes.
func rgbStride(width int) int {
	return (3*width + 3) &^ 3
}

// NRGBA converts the buffer back into a standard library image.
func (img *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		src := img.Pix[y*img.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < img.Width; x++ {
			s := src[x*img.Channels:]
			d := dst[4*x : 4*x+4]
			d[0], d[1], d[2] = s[0], s[1], s[2]
			if img.Channels == 4 {
				d[3] = s[3]
			} else {
				d[3] = 0xff
			}
		}
	}
	return out
}

// EncodePNG serialises the image as PNG, for sinks that take a file path.
func EncodePNG(img *Image) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.NRGBA()); err != nil {
		return nil, fmt.Errorf("PNG encode: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes the image as base64 PNG.
func EncodeBase64(img *Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
