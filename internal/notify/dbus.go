//go:build linux

package notify

import (
	"context"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"
)

// dbusSink sends notifications via D-Bus.
type dbusSink struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	appName string
	caps    Capabilities
}

// New creates a Sink that sends desktop notifications via D-Bus.
// Returns a logging sink if D-Bus is unavailable.
func New(ctx context.Context, appName string, logger *slog.Logger) (Sink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Warn("D-Bus session bus unavailable, notifications will only be logged", slog.Any("error", err))
		return NewLogSink(logger), nil
	}

	obj := conn.Object(dbusNotifyDest, dbusNotifyPath)
	s := &dbusSink{conn: conn, obj: obj, appName: appName}
	s.caps = s.queryCapabilities(ctx, logger)
	logger.Info("notification server detected",
		slog.String("server", s.caps.Server),
		slog.String("spec_version", s.caps.SpecVersion),
		slog.Bool("image_data", s.caps.ImageData),
		slog.Bool("image_path", s.caps.ImagePath))
	return s, nil
}

// queryCapabilities asks the server for its identity and spec version.
// A server that does not answer is assumed to accept only icon paths.
func (s *dbusSink) queryCapabilities(ctx context.Context, logger *slog.Logger) Capabilities {
	var name, vendor, version, spec string
	call := s.obj.CallWithContext(ctx, dbusNotifyInterface+".GetServerInformation", 0)
	if call.Err != nil {
		logger.Warn("GetServerInformation failed", slog.Any("error", call.Err))
		return Capabilities{}
	}
	if err := call.Store(&name, &vendor, &version, &spec); err != nil {
		logger.Warn("GetServerInformation reply", slog.Any("error", err))
		return Capabilities{}
	}

	return Capabilities{
		Server:      name,
		SpecVersion: spec,
		ImageData:   true,
		ImagePath:   specAtLeast(spec, 1, 2),
	}
}

// Notify sends a notification via D-Bus.
func (s *dbusSink) Notify(ctx context.Context, n Notification) (uint32, error) {
	hints, appIcon := buildHints(n, s.caps)

	// D-Bus Notify method signature:
	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := s.obj.CallWithContext(ctx,
		dbusNotifyInterface+".Notify",
		0,          // flags
		s.appName,  // app_name
		uint32(0),  // replaces_id
		appIcon,    // app_icon (path or icon name)
		n.Title,    // summary
		n.Body,     // body
		[]string{}, // actions
		hints,      // hints
		n.Timeout,  // expire_timeout
	)
	if call.Err != nil {
		return 0, call.Err
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *dbusSink) Capabilities() Capabilities {
	return s.caps
}

// Close leaves the shared session bus connection open; godbus owns it.
func (s *dbusSink) Close() error {
	return nil
}
