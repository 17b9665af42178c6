package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mqtt2notif/internal/config"
	"mqtt2notif/internal/console"
	"mqtt2notif/internal/logging"
)

type testNotifyOptions struct {
	app     string
	title   string
	text    string
	urgency string
	icon    string
	preview string
}

func newTestNotifyCommand(a *app, root *rootOptions) *cobra.Command {
	opts := testNotifyOptions{
		app:     "mqtt2notif",
		title:   "Test notification",
		text:    "If you can read this, notifications work.",
		urgency: "normal",
	}

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a sample notification through the local pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(configPath(root.configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			payload, err := opts.payload()
			if err != nil {
				return err
			}

			logger, err := a.logger(cfg)
			if err != nil {
				return err
			}
			sink, err := a.newSink(cmd.Context(), cfg.Display.AppName, logging.NewComponentLogger(logger, "notify"))
			if err != nil {
				return fmt.Errorf("notification sink: %w", err)
			}
			defer sink.Close()

			// Sound and transport stay out of a test; only presentation runs.
			cfg.Sound = config.SoundConfig{}
			printer := console.New(cmd.OutOrStdout())
			s, err := a.newSession(cfg, sink, printer, logger)
			if err != nil {
				return err
			}
			if err := s.relay.Deliver(cmd.Context(), payload); err != nil {
				return fmt.Errorf("test notification: %w", err)
			}
			printer.Success("Test notification sent via %s", sink.Capabilities().Server)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.app, "app", opts.app, "App name shown in the title")
	cmd.Flags().StringVar(&opts.title, "title", opts.title, "Notification title")
	cmd.Flags().StringVar(&opts.text, "text", opts.text, "Notification body")
	cmd.Flags().StringVar(&opts.urgency, "urgency", opts.urgency, "Urgency: high, normal, low or minimal")
	cmd.Flags().StringVar(&opts.icon, "icon", "", "Image file to send as the app icon")
	cmd.Flags().StringVar(&opts.preview, "preview", "", "Image file to send as the preview image")
	return cmd
}

// payload builds the same JSON a phone would publish.
func (o testNotifyOptions) payload() ([]byte, error) {
	fields := map[string]any{
		"package":   "mqtt2notif.test",
		"app":       o.app,
		"title":     o.title,
		"text":      o.text,
		"urgency":   o.urgency,
		"timestamp": time.Now().UnixMilli(),
	}
	for key, path := range map[string]string{"icon": o.icon, "previewImage": o.preview} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		fields[key] = base64.StdEncoding.EncodeToString(data)
	}
	return json.Marshal(fields)
}
