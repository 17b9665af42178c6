// ABOUTME: The resolved notification handed to the desktop sink.
// ABOUTME: Owns any temporary image file and removes it on Close.

package present

import (
	"mqtt2notif/internal/event"
	"mqtt2notif/internal/imagecodec"
	"mqtt2notif/internal/notify"
)

// Request is the fully resolved form of one Event.
type Request struct {
	Title    string
	Body     string
	Urgency  notify.Urgency
	Category string

	// At most one of Image and ImagePath is set.
	Image     *imagecodec.Image
	ImagePath string

	// Event is the decoded message the request was built from.
	Event *event.Event

	cleanup func() error
}

// HasImage reports whether the request carries an image attachment.
func (r *Request) HasImage() bool {
	return r.Image != nil || r.ImagePath != ""
}

// Notification converts the request into the sink's input.
func (r *Request) Notification(timeout int32) notify.Notification {
	return notify.Notification{
		Title:     r.Title,
		Body:      r.Body,
		Category:  r.Category,
		Urgency:   r.Urgency,
		Timeout:   timeout,
		Image:     r.Image,
		ImagePath: r.ImagePath,
	}
}

// Close releases resources backing the attachment. It is safe to call more
// than once and on a nil request.
func (r *Request) Close() error {
	if r == nil || r.cleanup == nil {
		return nil
	}
	cleanup := r.cleanup
	r.cleanup = nil
	return cleanup()
}
