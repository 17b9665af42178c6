// ABOUTME: Raw pixel buffer serialisation with the six-field image header.
// ABOUTME: Mirrors the (iiibiiay) layout of the freedesktop image-data hint.

package imagecodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var rawMagic = [4]byte{'I', 'M', 'G', '1'}

type rawHeader struct {
	Magic         [4]byte
	Width         int32
	Height        int32
	Stride        int32
	HasAlpha      uint32
	BitsPerSample int32
	Channels      int32
}

// Encode serialises img as a header followed by Stride*Height pixel bytes.
func Encode(img *Image) ([]byte, error) {
	if err := img.validate(); err != nil {
		return nil, err
	}

	hdr := rawHeader{
		Magic:         rawMagic,
		Width:         int32(img.Width),  //nolint:gosec // bounded by maxDimension
		Height:        int32(img.Height), //nolint:gosec // bounded by maxDimension
		Stride:        int32(img.Stride), //nolint:gosec // bounded by maxDimension
		BitsPerSample: int32(img.BitsPerSample),
		Channels:      int32(img.Channels),
	}
	if img.HasAlpha {
		hdr.HasAlpha = 1
	}

	var buf bytes.Buffer
	buf.Grow(binary.Size(hdr) + len(img.Pix))
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	buf.Write(img.Pix)
	return buf.Bytes(), nil
}

// DecodeRaw parses a buffer produced by Encode.
func DecodeRaw(data []byte) (*Image, error) {
	r := bytes.NewReader(data)
	var hdr rawHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: raw header: %w", ErrDecode, err)
	}
	if hdr.Magic != rawMagic {
		return nil, fmt.Errorf("%w: bad raw magic %q", ErrDecode, hdr.Magic[:])
	}

	img := &Image{
		Width:         int(hdr.Width),
		Height:        int(hdr.Height),
		Stride:        int(hdr.Stride),
		Channels:      int(hdr.Channels),
		BitsPerSample: int(hdr.BitsPerSample),
		HasAlpha:      hdr.HasAlpha != 0,
	}
	if img.Width <= 0 || img.Height <= 0 || img.Width > maxDimension || img.Height > maxDimension {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrDecode, img.Width, img.Height)
	}
	if img.Stride < 0 || img.Stride > 4*maxDimension+3 {
		return nil, fmt.Errorf("%w: stride %d out of range", ErrDecode, img.Stride)
	}

	img.Pix = make([]byte, img.Stride*img.Height)
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, fmt.Errorf("%w: pixel data: %w", ErrDecode, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDecode, r.Len())
	}
	if err := img.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, nil
}

func (img *Image) validate() error {
	switch {
	case img == nil:
		return errors.New("nil image")
	case img.BitsPerSample != BitsPerSample:
		return fmt.Errorf("unsupported bits per sample %d", img.BitsPerSample)
	case img.Channels != 3 && img.Channels != 4:
		return fmt.Errorf("unsupported channel count %d", img.Channels)
	case img.HasAlpha != (img.Channels == 4):
		return fmt.Errorf("alpha flag disagrees with %d channels", img.Channels)
	case img.Stride < img.Width*img.Channels:
		return fmt.Errorf("stride %d shorter than row of %d pixels", img.Stride, img.Width)
	case len(img.Pix) != img.Stride*img.Height:
		return fmt.Errorf("pixel buffer is %d bytes, want %d", len(img.Pix), img.Stride*img.Height)
	}
	return nil
}
