// ABOUTME: Overlays an app icon with a soft shadow onto a notification preview image.
// ABOUTME: Produces a single bitmap so servers that show one image still show both.

// Package composite builds the combined icon-over-preview image.
package composite

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"mqtt2notif/internal/imagecodec"
)

const (
	// IconSize is the edge length the icon is resized to before overlaying.
	IconSize = 64
	// Margin is the distance between the icon and the canvas edges.
	Margin = 8

	shadowInset  = 4
	shadowOffset = 2
	shadowAlpha  = 100
)

// ErrComposite is returned when the composite image cannot be produced.
var ErrComposite = errors.New("composite failed")

// Corner selects where the icon is placed on the preview.
type Corner string

const (
	BottomRight Corner = "bottom-right"
	TopRight    Corner = "top-right"
	TopLeft     Corner = "top-left"
	BottomLeft  Corner = "bottom-left"
)

// ParseCorner maps a config value to a Corner. Empty means BottomRight.
// Unknown values are kept as-is and end up at the top-left margin.
func ParseCorner(s string) Corner {
	if s == "" {
		return BottomRight
	}
	return Corner(s)
}

// Position returns the top-left point of the icon on a canvas of the given size.
func Position(c Corner, width, height int) image.Point {
	switch c {
	case BottomRight:
		return image.Pt(width-IconSize-Margin, height-IconSize-Margin)
	case TopRight:
		return image.Pt(width-IconSize-Margin, Margin)
	case TopLeft:
		return image.Pt(Margin, Margin)
	case BottomLeft:
		return image.Pt(Margin, height-IconSize-Margin)
	default:
		return image.Pt(Margin, Margin)
	}
}

// Compose returns a copy of preview with icon overlaid at the given corner.
// The result always has the preview's dimensions; inputs are not modified.
func Compose(icon, preview *imagecodec.Image, corner Corner) (*imagecodec.Image, error) {
	if icon == nil || preview == nil {
		return nil, fmt.Errorf("%w: missing input image", ErrComposite)
	}
	if icon.Width <= 0 || icon.Height <= 0 || preview.Width <= 0 || preview.Height <= 0 {
		return nil, fmt.Errorf("%w: empty input image", ErrComposite)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, preview.Width, preview.Height))
	xdraw.Draw(canvas, canvas.Bounds(), preview.NRGBA(), image.Point{}, xdraw.Src)

	resized := resize.Resize(IconSize, IconSize, icon.NRGBA(), resize.Lanczos3)
	if resized == nil || resized.Bounds().Dx() != IconSize || resized.Bounds().Dy() != IconSize {
		return nil, fmt.Errorf("%w: icon resize", ErrComposite)
	}

	at := Position(corner, preview.Width, preview.Height)

	shadowAt := at.Add(image.Pt(shadowOffset, shadowOffset))
	xdraw.DrawMask(canvas, image.Rectangle{Min: shadowAt, Max: shadowAt.Add(image.Pt(IconSize, IconSize))},
		image.Black, image.Point{}, shadowMask(), image.Point{}, xdraw.Over)

	xdraw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(IconSize, IconSize))},
		resized, resized.Bounds().Min, xdraw.Over)

	return imagecodec.FromImage(canvas), nil
}

// shadowMask rasterises a translucent disc inset within the icon box.
func shadowMask() *image.Alpha {
	const (
		c = float32(IconSize) / 2
		r = c - shadowInset
		k = 0.5522847498 * r // cubic Bézier circle approximation
	)

	z := vector.NewRasterizer(IconSize, IconSize)
	z.MoveTo(c+r, c)
	z.CubeTo(c+r, c+k, c+k, c+r, c, c+r)
	z.CubeTo(c-k, c+r, c-r, c+k, c-r, c)
	z.CubeTo(c-r, c-k, c-k, c-r, c, c-r)
	z.CubeTo(c+k, c-r, c+r, c-k, c+r, c)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, IconSize, IconSize))
	z.Draw(mask, mask.Bounds(), image.NewUniform(color.Alpha{A: shadowAlpha}), image.Point{})
	return mask
}
