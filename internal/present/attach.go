// ABOUTME: Strategies for attaching an image to a request: raw pixels or a temp PNG file.
// ABOUTME: The strategy is chosen from the notification server's capabilities.

package present

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"mqtt2notif/internal/imagecodec"
	"mqtt2notif/internal/notify"
)

// Image transport modes accepted by SelectAttacher.
const (
	ModeAuto = "auto"
	ModeData = "data"
	ModeFile = "file"
)

// Attacher puts a decoded image on a request.
type Attacher interface {
	Attach(req *Request, img *imagecodec.Image) error
}

// PixelAttacher hands the raw pixel buffer to the sink.
type PixelAttacher struct{}

func (PixelAttacher) Attach(req *Request, img *imagecodec.Image) error {
	if img == nil {
		return errors.New("nil image")
	}
	req.Image = img
	return nil
}

// FileAttacher writes the image to a temporary PNG and attaches its path.
// The file is removed when the request is closed.
type FileAttacher struct {
	// Dir is where temp files go; empty means os.TempDir().
	Dir string
}

func (a FileAttacher) Attach(req *Request, img *imagecodec.Image) error {
	data, err := imagecodec.EncodePNG(img)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(a.Dir, "mqtt2notif-*.png")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close temp image: %w", err)
	}

	req.ImagePath = path
	req.cleanup = func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return nil
}

// SelectAttacher picks the attachment strategy for a sink. In auto mode raw
// pixels are used whenever the server accepts them.
func SelectAttacher(caps notify.Capabilities, mode, dir string) (Attacher, error) {
	switch mode {
	case ModeData:
		return PixelAttacher{}, nil
	case ModeFile:
		return FileAttacher{Dir: dir}, nil
	case ModeAuto, "":
		if caps.ImageData {
			return PixelAttacher{}, nil
		}
		return FileAttacher{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unknown image transport %q", mode)
	}
}
