// ABOUTME: The relay run loop: load config, hold the instance lock, run the source.
// ABOUTME: Rebuilds the pipeline when the config file changes on disk.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mqtt2notif/internal/config"
	"mqtt2notif/internal/console"
	"mqtt2notif/internal/instance"
	"mqtt2notif/internal/logging"
	"mqtt2notif/internal/notify"
)

func runRelay(ctx context.Context, a *app, out io.Writer, opts rootOptions) error {
	path := configPath(opts.configPath)
	cfg, exists, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := a.logger(cfg)
	if err != nil {
		return err
	}

	var printer *console.Printer
	if !opts.daemon {
		printer = console.New(out)
	}

	lockPath := a.lockPath
	if lockPath == "" {
		if lockPath, err = instance.DefaultPath(); err != nil {
			return fmt.Errorf("lock path: %w", err)
		}
	}
	lock, err := instance.Acquire(lockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	sink, err := a.newSink(ctx, cfg.Display.AppName, logging.NewComponentLogger(logger, "notify"))
	if err != nil {
		return fmt.Errorf("notification sink: %w", err)
	}
	defer sink.Close()

	if !exists {
		printer.Warn("No config file at %s, using defaults (run init-config to create one)", path)
		logger.Info("config file not found, using defaults", slog.String("path", path))
	}

	var changes <-chan struct{}
	if exists {
		if changes, err = config.Watch(ctx, path); err != nil {
			logger.Warn("config watch unavailable", slog.Any("error", err))
		}
	}

	for {
		next, err := runSession(ctx, a, cfg, path, changes, sink, printer, logger)
		if err != nil {
			return err
		}
		if next == nil {
			printer.Info("Shutting down...")
			logger.Info("relay stopped")
			return nil
		}
		cfg = next
		printer.Info("Configuration changed, reconnecting")
	}
}

// runSession runs one pipeline until ctx ends (nil, nil), the source fails,
// or a valid new config is loaded (cfg, nil).
func runSession(ctx context.Context, a *app, cfg *config.Config, path string, changes <-chan struct{},
	sink notify.Sink, printer *console.Printer, logger *slog.Logger,
) (*config.Config, error) {
	s, err := a.newSession(cfg, sink, printer, logger)
	if err != nil {
		return nil, err
	}
	banner(cfg, printer, logger, sink.Capabilities().Server)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.relay.Run(sessCtx, s.source) }()

	for {
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				printer.Fail("Failed to connect: %v", err)
				return nil, err
			}
			return nil, nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			next, _, err := config.Load(path)
			if err != nil {
				logger.Error("config reload failed, keeping current settings", slog.Any("error", err))
				printer.Warn("Config reload failed: %v", err)
				continue
			}
			logger.Info("config reloaded", slog.String("path", path))
			cancel()
			<-done
			return next, nil
		}
	}
}

func banner(cfg *config.Config, printer *console.Printer, logger *slog.Logger, server string) {
	printer.Header("Starting MQTT to Linux Notification Receiver")

	if cfg.Source == config.SourceWebSocket {
		printer.Info("Server: %s", cfg.WebSocket.URL)
		logger.Info("relay starting",
			slog.String("source", cfg.Source),
			slog.String("url", cfg.WebSocket.URL),
			slog.String("notification_server", server))
	} else {
		m := cfg.MQTT
		security := "None"
		if m.SSL {
			security = "SSL/TLS"
			if !m.SSLVerify {
				security += " (certificate not verified)"
			}
		}
		printer.Info("Broker: %s:%d", m.Broker, m.Port)
		printer.Info("Topic: %s", m.Topic)
		printer.Info("Security: %s", security)
		logger.Info("relay starting",
			slog.String("source", cfg.Source),
			slog.String("broker", m.BrokerURL()),
			slog.String("topic", m.Topic),
			slog.Bool("tls", m.SSL),
			slog.Bool("auth", m.HasCredentials()),
			slog.String("notification_server", server))
	}
	printer.Info("Listening for notifications... (Press Ctrl+C to stop)")
}
