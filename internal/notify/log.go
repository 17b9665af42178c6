package notify

import (
	"context"
	"log/slog"
)

// logSink is used when no notification server is reachable.
type logSink struct {
	logger *slog.Logger
}

// NewLogSink returns a Sink that only logs.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &logSink{logger: logger}
}

func (s *logSink) Notify(_ context.Context, n Notification) (uint32, error) {
	attrs := []any{
		slog.String("title", n.Title),
		slog.String("urgency", n.Urgency.String()),
	}
	if n.Category != "" {
		attrs = append(attrs, slog.String("category", n.Category))
	}
	switch {
	case n.Image != nil:
		attrs = append(attrs, slog.Int("image_width", n.Image.Width), slog.Int("image_height", n.Image.Height))
	case n.ImagePath != "":
		attrs = append(attrs, slog.String("image_path", n.ImagePath))
	}
	s.logger.Info("notification (no desktop server)", attrs...)
	return 0, nil
}

func (s *logSink) Capabilities() Capabilities {
	return Capabilities{Server: "log", ImageData: true, ImagePath: true}
}

func (s *logSink) Close() error {
	return nil
}
