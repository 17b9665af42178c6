// ABOUTME: Per-message pipeline from raw payload to desktop notification.
// ABOUTME: Resolves, echoes, notifies and alerts, cleaning up attachments on every path.

// Package relay connects a transport source to the notification sink.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"mqtt2notif/internal/console"
	"mqtt2notif/internal/event"
	"mqtt2notif/internal/notify"
	"mqtt2notif/internal/present"
	"mqtt2notif/internal/sound"
	"mqtt2notif/internal/transport"
)

// Relay handles payloads one at a time and is not safe for concurrent use.
type Relay struct {
	resolver *present.Resolver
	sink     notify.Sink
	printer  *console.Printer
	alerter  *sound.Alerter
	logger   *slog.Logger
	timeout  int32
}

// Config wires a Relay. Printer and Alerter may be nil.
type Config struct {
	Resolver *present.Resolver
	Sink     notify.Sink
	Printer  *console.Printer
	Alerter  *sound.Alerter
	Logger   *slog.Logger
	// TimeoutMS is passed to the sink; -1 uses the server default.
	TimeoutMS int32
}

func New(cfg Config) *Relay {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = present.NewResolver(present.WithLogger(logger))
	}
	return &Relay{
		resolver: resolver,
		sink:     cfg.Sink,
		printer:  cfg.Printer,
		alerter:  cfg.Alerter,
		logger:   logger,
		timeout:  cfg.TimeoutMS,
	}
}

// Run feeds every payload from src through Handle until ctx ends.
func (r *Relay) Run(ctx context.Context, src transport.Source) error {
	return src.Run(ctx, r.Handle)
}

// Handle processes one payload. Malformed payloads and sink failures are
// logged and dropped; nothing is retried.
func (r *Relay) Handle(ctx context.Context, payload []byte) {
	_ = r.Deliver(ctx, payload)
}

// Deliver is Handle that also returns why a payload was not shown.
func (r *Relay) Deliver(ctx context.Context, payload []byte) error {
	logger := r.logger.With(slog.String("msg_id", uuid.NewString()))

	req, err := r.resolver.Resolve(payload)
	if err != nil {
		if errors.Is(err, event.ErrMalformedPayload) {
			logger.Warn("dropping malformed payload", slog.Int("bytes", len(payload)), slog.Any("error", err))
			r.printer.Fail("Error: could not decode message")
			return err
		}
		logger.Error("resolve failed", slog.Any("error", err))
		return err
	}
	defer func() {
		if err := req.Close(); err != nil {
			logger.Warn("attachment cleanup failed", slog.Any("error", err))
		}
	}()

	ev := req.Event
	r.printer.Event(ev)
	r.describeImage(req)

	id, err := r.sink.Notify(ctx, req.Notification(r.timeout))
	if err != nil {
		logger.Error("notification failed",
			slog.String("app", ev.App),
			slog.String("urgency", req.Urgency.String()),
			slog.Any("error", err))
		r.printer.Fail("Failed to show notification: %v", err)
		return fmt.Errorf("notify: %w", err)
	}

	logger.Info("notification shown",
		slog.Uint64("id", uint64(id)),
		slog.String("app", ev.App),
		slog.String("package", ev.Package),
		slog.String("urgency", req.Urgency.String()),
		slog.Bool("image", req.HasImage()))

	r.alerter.Alert(ev, req.Urgency)
	return nil
}

func (r *Relay) describeImage(req *present.Request) {
	ev := req.Event
	switch {
	case !req.HasImage() && (ev.HasIcon() || ev.HasPreview()):
		r.printer.Warn("Image could not be used, showing text only")
	case ev.HasIcon() && ev.HasPreview():
		r.printer.Step("Preview image with app icon overlay")
	case ev.HasPreview():
		r.printer.Step("Preview image")
	case ev.HasIcon():
		r.printer.Step("App icon")
	}
}
