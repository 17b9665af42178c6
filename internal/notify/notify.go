// Package notify delivers resolved notifications to the desktop.
package notify

import (
	"context"

	"mqtt2notif/internal/imagecodec"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Notification contains data for a desktop notification.
type Notification struct {
	Title    string  // Summary text (required)
	Body     string  // Body text (optional, supports basic markup)
	Category string  // freedesktop category hint, empty for none
	Urgency  Urgency // Low, Normal, Critical
	Timeout  int32   // ms, -1 = server default, 0 = never expire

	// At most one of Image and ImagePath is set.
	Image     *imagecodec.Image
	ImagePath string
}

// Capabilities describes what the notification server can display.
type Capabilities struct {
	Server      string
	SpecVersion string
	// ImageData means raw pixel buffers are accepted as a hint.
	ImageData bool
	// ImagePath means the image-path hint is understood; otherwise file
	// images are passed as the app icon.
	ImagePath bool
}

// Sink sends desktop notifications.
type Sink interface {
	// Notify sends a notification and returns its ID. Any image file it
	// references must have been read by the time Notify returns.
	Notify(ctx context.Context, n Notification) (uint32, error)
	// Capabilities reports what the server accepted at connect time.
	Capabilities() Capabilities
	// Close releases the connection to the notification server.
	Close() error
}
