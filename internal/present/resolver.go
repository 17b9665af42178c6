// ABOUTME: Turns a decoded event into a notification request.
// ABOUTME: Chooses between composite, preview-only, icon-only and text-only presentation.

// Package present resolves notification events into sink requests.
package present

import (
	"fmt"
	"log/slog"

	"mqtt2notif/internal/composite"
	"mqtt2notif/internal/event"
	"mqtt2notif/internal/imagecodec"
	"mqtt2notif/internal/notify"
)

// Resolver builds Requests. It holds only configuration and is safe to reuse.
type Resolver struct {
	corner   composite.Corner
	attacher Attacher
	logger   *slog.Logger

	compose func(icon, preview *imagecodec.Image, corner composite.Corner) (*imagecodec.Image, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCorner sets where the icon goes on a composite image.
func WithCorner(c composite.Corner) Option {
	return func(r *Resolver) { r.corner = c }
}

// WithAttacher sets the image attachment strategy.
func WithAttacher(a Attacher) Option {
	return func(r *Resolver) { r.attacher = a }
}

// WithLogger sets the logger used for degraded presentation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver returns a Resolver that composites at the bottom-right corner
// and attaches raw pixels unless configured otherwise.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		corner:   composite.BottomRight,
		attacher: PixelAttacher{},
		compose:  composite.Compose,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Resolve decodes payload and builds its Request. The only error is a
// malformed payload; image problems degrade the presentation instead.
func (r *Resolver) Resolve(payload []byte) (*Request, error) {
	ev, err := event.Decode(payload)
	if err != nil {
		return nil, err
	}
	return r.Build(ev), nil
}

// Build assembles the Request for ev. The caller must Close it.
func (r *Resolver) Build(ev *event.Event) *Request {
	req := &Request{
		Title:    fmt.Sprintf("%s: %s", ev.App, ev.Title),
		Body:     ev.Text,
		Urgency:  MapUrgency(ev.Urgency),
		Category: ev.Category,
		Event:    ev,
	}

	img := r.selectImage(ev)
	if img == nil {
		return req
	}
	if err := r.attacher.Attach(req, img); err != nil {
		r.logger.Warn("attaching image failed, showing text only",
			slog.String("app", ev.App), slog.Any("error", err))
	}
	return req
}

// selectImage walks the presentation cases in order: composite, preview,
// icon, none. A nil result means the notification is shown without an image.
func (r *Resolver) selectImage(ev *event.Event) *imagecodec.Image {
	switch {
	case ev.HasIcon() && ev.HasPreview():
		preview := r.decode(ev, "preview", ev.Preview)
		icon := r.decode(ev, "icon", ev.Icon)
		if preview == nil || icon == nil {
			r.logger.Warn("composite unavailable, using preview only", slog.String("app", ev.App))
			return preview
		}
		out, err := r.compose(icon, preview, r.corner)
		if err != nil || out == nil {
			r.logger.Warn("composite failed, using preview only",
				slog.String("app", ev.App), slog.Any("error", err))
			return preview
		}
		return out
	case ev.HasPreview():
		return r.decode(ev, "preview", ev.Preview)
	case ev.HasIcon():
		return r.decode(ev, "icon", ev.Icon)
	default:
		return nil
	}
}

func (r *Resolver) decode(ev *event.Event, kind, data string) *imagecodec.Image {
	img, err := imagecodec.Decode(data)
	if err != nil {
		r.logger.Warn("image decode failed",
			slog.String("app", ev.App), slog.String("image", kind), slog.Any("error", err))
		return nil
	}
	return img
}

// MapUrgency converts the sender urgency to the desktop urgency.
func MapUrgency(l event.Level) notify.Urgency {
	switch l {
	case event.LevelHigh:
		return notify.UrgencyCritical
	case event.LevelLow, event.LevelMinimal:
		return notify.UrgencyLow
	default:
		return notify.UrgencyNormal
	}
}
