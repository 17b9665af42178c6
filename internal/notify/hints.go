package notify

import (
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

// imageData matches the (iiibiiay) signature of the image-data hint.
type imageData struct {
	Width         int32
	Height        int32
	RowStride     int32
	HasAlpha      bool
	BitsPerSample int32
	Channels      int32
	Data          []byte
}

// imageDataKey returns the hint name the server's spec version expects.
func imageDataKey(specVersion string) string {
	switch {
	case specAtLeast(specVersion, 1, 2):
		return "image-data"
	case specAtLeast(specVersion, 1, 1):
		return "image_data"
	default:
		return "icon_data"
	}
}

// specAtLeast compares a "major.minor" version string. Unparseable versions
// compare as 0.0.
func specAtLeast(v string, major, minor int) bool {
	maj, mnr := 0, 0
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) > 0 {
		maj, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		mnr, _ = strconv.Atoi(parts[1])
	}
	if maj != major {
		return maj > major
	}
	return mnr >= minor
}

// buildHints assembles the hint map and app_icon argument for a notification.
func buildHints(n Notification, caps Capabilities) (map[string]dbus.Variant, string) {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}
	if n.Category != "" {
		hints["category"] = dbus.MakeVariant(n.Category)
	}

	var appIcon string
	switch {
	case n.Image != nil:
		img := n.Image
		hints[imageDataKey(caps.SpecVersion)] = dbus.MakeVariant(imageData{
			Width:         int32(img.Width),  //nolint:gosec // image dimensions are bounded on decode
			Height:        int32(img.Height), //nolint:gosec // image dimensions are bounded on decode
			RowStride:     int32(img.Stride), //nolint:gosec // image dimensions are bounded on decode
			HasAlpha:      img.HasAlpha,
			BitsPerSample: int32(img.BitsPerSample),
			Channels:      int32(img.Channels),
			Data:          img.Pix,
		})
	case n.ImagePath != "":
		if caps.ImagePath {
			hints["image-path"] = dbus.MakeVariant(n.ImagePath)
		} else {
			appIcon = n.ImagePath
		}
	}
	return hints, appIcon
}
