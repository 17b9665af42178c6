package main

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"mqtt2notif/internal/composite"
	"mqtt2notif/internal/config"
	"mqtt2notif/internal/console"
	"mqtt2notif/internal/logging"
	"mqtt2notif/internal/notify"
	"mqtt2notif/internal/present"
	"mqtt2notif/internal/relay"
	"mqtt2notif/internal/sound"
	"mqtt2notif/internal/transport"
)

// app holds the process-wide collaborators that tests replace.
type app struct {
	newSink   func(ctx context.Context, appName string, logger *slog.Logger) (notify.Sink, error)
	newPlayer func() sound.Player
	lockPath  string // empty uses instance.DefaultPath
	stderr    io.Writer

	player sound.Player
}

func defaultApp() *app {
	return &app{
		newSink:   notify.New,
		newPlayer: func() sound.Player { return sound.NewBeepPlayer() },
		stderr:    os.Stderr,
	}
}

// soundPlayer opens the audio device once per process, on first need.
func (a *app) soundPlayer() sound.Player {
	if a.player == nil && a.newPlayer != nil {
		a.player = a.newPlayer()
	}
	return a.player
}

func (a *app) logger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: a.stderr,
	})
}

// session is one configured pipeline. A config reload replaces it.
type session struct {
	relay  *relay.Relay
	source transport.Source
}

func (a *app) newSession(cfg *config.Config, sink notify.Sink, printer *console.Printer, logger *slog.Logger) (*session, error) {
	attacher, err := present.SelectAttacher(sink.Capabilities(), cfg.Display.ImageTransport, cfg.Display.TempDir)
	if err != nil {
		return nil, err
	}
	resolver := present.NewResolver(
		present.WithCorner(composite.ParseCorner(cfg.Display.OverlayPosition)),
		present.WithAttacher(attacher),
		present.WithLogger(logging.NewComponentLogger(logger, "present")),
	)

	var alerter *sound.Alerter
	if cfg.Sound.File != "" || len(cfg.Sound.Rules) > 0 {
		alerter, err = sound.NewAlerter(cfg.Sound, a.soundPlayer(), logging.NewComponentLogger(logger, "sound"))
		if err != nil {
			return nil, err
		}
	}

	src, err := newSource(cfg, printer, logger)
	if err != nil {
		return nil, err
	}

	return &session{
		relay: relay.New(relay.Config{
			Resolver:  resolver,
			Sink:      sink,
			Printer:   printer,
			Alerter:   alerter,
			Logger:    logging.NewComponentLogger(logger, "relay"),
			TimeoutMS: cfg.Display.TimeoutMS,
		}),
		source: src,
	}, nil
}

func newSource(cfg *config.Config, printer *console.Printer, logger *slog.Logger) (transport.Source, error) {
	logger = logging.NewComponentLogger(logger, "transport")

	if cfg.Source == config.SourceWebSocket {
		url := cfg.WebSocket.URL
		ws := transport.NewWebSocketSource(url, cfg.WebSocket.Secret, logger)
		ws.OnConnect = func() { printer.Success("Connected to %s", url) }
		ws.OnDisconnect = func() { printer.Warn("Disconnected from %s", url) }
		return ws, nil
	}

	m := cfg.MQTT
	if err := transport.ValidateTopic(m.Topic); err != nil {
		return nil, err
	}
	opts := transport.MQTTOptions{
		BrokerURL: m.BrokerURL(),
		ClientID:  m.ClientID,
		Topic:     m.Topic,
		QoS:       m.QoS,
		KeepAlive: time.Duration(m.KeepAlive) * time.Second,
		OnConnect: func() {
			printer.Success("Connected to MQTT broker")
			printer.Info("Subscribed to topic: %s", m.Topic)
		},
		OnConnectionLost: func(err error) {
			printer.Warn("Unexpected disconnection from broker: %v", err)
		},
	}
	if opts.ClientID == "" {
		opts.ClientID = defaultClientID()
	}
	if m.HasCredentials() {
		opts.Username = m.Username
		opts.Password = m.Password
	}
	if m.SSL {
		opts.TLS = &tls.Config{InsecureSkipVerify: !m.SSLVerify}
	}
	return transport.NewMQTTSource(opts, logger), nil
}

// defaultClientID is the hostname, so a broker shows which desktop is
// listening.
func defaultClientID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "mqtt2notif-" + uuid.NewString()[:8]
}
