//go:build !linux

package notify

import (
	"context"
	"log/slog"
)

// New returns a logging sink on non-Linux platforms.
// Desktop notifications are only supported on Linux via D-Bus.
func New(_ context.Context, _ string, logger *slog.Logger) (Sink, error) {
	return NewLogSink(logger), nil
}
