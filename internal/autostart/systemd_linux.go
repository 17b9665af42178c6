// ABOUTME: Linux auto-start using a systemd user service.
// ABOUTME: Writes the unit under the XDG config directory and drives systemctl --user.

//go:build linux

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/adrg/xdg"
)

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=MQTT to desktop notification relay
After=graphical-session.target network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.ExecStart}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

func (o Options) unitDir() string {
	if o.UnitDir != "" {
		return o.UnitDir
	}
	return filepath.Join(xdg.ConfigHome, "systemd", "user")
}

func (o Options) unitPath() string {
	return filepath.Join(o.unitDir(), ServiceName)
}

func (o Options) execStart() (string, error) {
	execPath, err := o.execPath()
	if err != nil {
		return "", fmt.Errorf("could not determine executable path: %w", err)
	}
	cmd := strconv.Quote(execPath) + " --daemon"
	if o.ConfigPath != "" {
		cmd += " --config " + strconv.Quote(o.ConfigPath)
	}
	return cmd, nil
}

// Install writes, enables and starts the user service.
func Install(o Options) error {
	execStart, err := o.execStart()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(o.unitDir(), 0o755); err != nil {
		return fmt.Errorf("could not create service directory: %w", err)
	}

	run := o.runner()
	// Stop an existing instance so the new unit takes effect.
	_ = run("systemctl", "--user", "stop", ServiceName)

	f, err := os.Create(o.unitPath())
	if err != nil {
		return fmt.Errorf("could not create service file: %w", err)
	}
	if err := unitTemplate.Execute(f, struct{ ExecStart string }{execStart}); err != nil {
		f.Close()
		return fmt.Errorf("could not write service file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not write service file: %w", err)
	}

	if err := run("systemctl", "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("could not reload systemd: %w", err)
	}
	if err := run("systemctl", "--user", "enable", "--now", ServiceName); err != nil {
		return fmt.Errorf("could not enable service: %w", err)
	}
	return nil
}

// Uninstall stops, disables and removes the user service.
func Uninstall(o Options) error {
	run := o.runner()
	_ = run("systemctl", "--user", "stop", ServiceName)
	_ = run("systemctl", "--user", "disable", ServiceName)

	if err := os.Remove(o.unitPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove service file: %w", err)
	}

	_ = run("systemctl", "--user", "daemon-reload")
	return nil
}

// Query reports whether the unit file exists and the service is running.
func Query(o Options) Status {
	st := Status{UnitPath: o.unitPath()}
	if _, err := os.Stat(st.UnitPath); err != nil {
		return st
	}
	st.Installed = true
	st.Active = o.runner()("systemctl", "--user", "is-active", "--quiet", ServiceName) == nil
	return st
}
