// ABOUTME: Configuration file handling for broker, display, sound and log settings.
// ABOUTME: Loads TOML via koanf from the XDG config directory and writes defaults on request.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
)

const appName = "mqtt2notif"

// Source names accepted in the top-level "source" key.
const (
	SourceMQTT      = "mqtt"
	SourceWebSocket = "websocket"
)

type Config struct {
	Source    string          `koanf:"source" toml:"source"` // "mqtt" or "websocket"
	MQTT      MQTTConfig      `koanf:"mqtt" toml:"mqtt"`
	WebSocket WebSocketConfig `koanf:"websocket" toml:"websocket"`
	Display   DisplayConfig   `koanf:"display" toml:"display"`
	Sound     SoundConfig     `koanf:"sound" toml:"sound"`
	Log       LogConfig       `koanf:"log" toml:"log"`
}

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	Broker    string `koanf:"broker" toml:"broker"`
	Port      int    `koanf:"port" toml:"port"`
	SSL       bool   `koanf:"ssl" toml:"ssl"`
	SSLVerify bool   `koanf:"ssl_verify" toml:"ssl_verify"` // verify the broker certificate (default: false)
	WebSocket bool   `koanf:"websocket" toml:"websocket"`   // MQTT over ws:// or wss://
	Topic     string `koanf:"topic" toml:"topic"`
	Username  string `koanf:"username" toml:"username"`
	Password  string `koanf:"password" toml:"password"`
	ClientID  string `koanf:"client_id" toml:"client_id"` // default: hostname
	QoS       byte   `koanf:"qos" toml:"qos"`
	KeepAlive int    `koanf:"keepalive" toml:"keepalive"` // seconds
}

// WebSocketConfig holds the settings for a plain WebSocket event feed.
type WebSocketConfig struct {
	URL    string `koanf:"url" toml:"url"`
	Secret string `koanf:"secret" toml:"secret"`
}

// DisplayConfig controls how notifications are presented.
type DisplayConfig struct {
	AppName         string `koanf:"app_name" toml:"app_name"`
	OverlayPosition string `koanf:"overlay_position" toml:"overlay_position"` // bottom-right, top-right, top-left, bottom-left
	ImageTransport  string `koanf:"image_transport" toml:"image_transport"`   // auto, data, file
	TempDir         string `koanf:"temp_dir" toml:"temp_dir"`
	TimeoutMS       int32  `koanf:"timeout_ms" toml:"timeout_ms"` // -1 = server default
}

// SoundConfig enables an alert sound for urgent notifications.
type SoundConfig struct {
	File       string      `koanf:"file" toml:"file"`               // wav, ogg/oga or flac; empty disables
	MinUrgency string      `koanf:"min_urgency" toml:"min_urgency"` // low, normal, critical
	Rules      []SoundRule `koanf:"rules" toml:"rules,omitempty"`
}

// SoundRule picks a sound for matching notifications regardless of urgency.
// Empty filters match everything; File "none" silences the match.
type SoundRule struct {
	App     string `koanf:"app" toml:"app,omitempty"`
	Package string `koanf:"package" toml:"package,omitempty"`
	Pattern string `koanf:"pattern" toml:"pattern,omitempty"` // regex on title and text
	File    string `koanf:"file" toml:"file"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level"`   // debug, info, warn, error
	Format string `koanf:"format" toml:"format"` // auto, text, json
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Source: SourceMQTT,
		MQTT: MQTTConfig{
			Broker:    "localhost",
			Port:      1883,
			Topic:     "notif2mqtt/notifications",
			KeepAlive: 60,
		},
		Display: DisplayConfig{
			AppName:         "Notif2MQTT",
			OverlayPosition: "bottom-right",
			ImageTransport:  "auto",
			TimeoutMS:       -1,
		},
		Sound: SoundConfig{
			MinUrgency: "critical",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/mqtt2notif/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Load reads the file at path over the defaults. A missing file is not an
// error; exists reports whether one was read.
func Load(path string) (cfg *Config, exists bool, err error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg = Default()
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, false, nil
		}
		return nil, false, statErr
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, true, fmt.Errorf("read %s: %w", path, err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, true, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, true, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, true, nil
}

// Environment variables fill secrets left empty in the file.
const (
	EnvUsername = "MQTT2NOTIF_USERNAME"
	EnvPassword = "MQTT2NOTIF_PASSWORD"
	EnvWSSecret = "MQTT2NOTIF_WS_SECRET"
)

func (c *Config) applyEnv() {
	if c.MQTT.Username == "" {
		c.MQTT.Username = os.Getenv(EnvUsername)
	}
	if c.MQTT.Password == "" {
		c.MQTT.Password = os.Getenv(EnvPassword)
	}
	if c.WebSocket.Secret == "" {
		c.WebSocket.Secret = os.Getenv(EnvWSSecret)
	}
}

func (c *Config) normalize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Source == "" {
		c.Source = SourceMQTT
	}
	c.MQTT.Broker = strings.TrimSpace(c.MQTT.Broker)
	c.WebSocket.URL = strings.TrimSpace(c.WebSocket.URL)
	c.Display.TempDir = expandPath(c.Display.TempDir)
	c.Sound.File = expandPath(c.Sound.File)
	c.Sound.MinUrgency = strings.ToLower(strings.TrimSpace(c.Sound.MinUrgency))
	for i := range c.Sound.Rules {
		c.Sound.Rules[i].File = expandPath(c.Sound.Rules[i].File)
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceMQTT:
		if c.MQTT.Broker == "" {
			return errors.New("mqtt.broker is required")
		}
		if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
			return fmt.Errorf("mqtt.port %d out of range", c.MQTT.Port)
		}
		if c.MQTT.Topic == "" {
			return errors.New("mqtt.topic is required")
		}
		if c.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS)
		}
	case SourceWebSocket:
		if c.WebSocket.URL == "" {
			return errors.New("websocket.url is required when source is websocket")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch c.Display.ImageTransport {
	case "auto", "data", "file":
	default:
		return fmt.Errorf("display.image_transport %q must be auto, data or file", c.Display.ImageTransport)
	}

	switch c.Sound.MinUrgency {
	case "", "low", "normal", "critical":
	default:
		return fmt.Errorf("sound.min_urgency %q must be low, normal or critical", c.Sound.MinUrgency)
	}
	for i, r := range c.Sound.Rules {
		if r.Pattern == "" {
			continue
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("sound.rules[%d].pattern: %w", i, err)
		}
	}
	return nil
}

// HasCredentials mirrors the broker login rule: both fields must be set.
func (m MQTTConfig) HasCredentials() bool {
	return m.Username != "" && m.Password != ""
}

// BrokerURL builds the paho broker URL from the connection settings.
func (m MQTTConfig) BrokerURL() string {
	scheme := "tcp"
	switch {
	case m.WebSocket && m.SSL:
		scheme = "wss"
	case m.WebSocket:
		scheme = "ws"
	case m.SSL:
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, m.Broker, m.Port)
}

// Save writes the configuration to path, creating directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := gotoml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
