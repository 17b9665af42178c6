// ABOUTME: Login auto-start management for the relay.
// ABOUTME: Shared service description; platform files implement install and removal.

// Package autostart installs the relay as a per-user background service.
package autostart

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

// ServiceName is the unit name used for the user service.
const ServiceName = "mqtt2notif.service"

// ErrUnsupported is returned on platforms without a user service manager.
var ErrUnsupported = errors.New("auto-start is not supported on this platform")

// Status describes the installed service.
type Status struct {
	Installed bool
	Active    bool
	UnitPath  string
}

// Runner executes a service manager command.
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Options controls what the service runs.
type Options struct {
	// ExecPath defaults to the running executable with symlinks resolved.
	ExecPath string
	// ConfigPath is passed with --config when set.
	ConfigPath string
	// UnitDir overrides the user unit directory.
	UnitDir string
	// Run overrides command execution.
	Run Runner
}

func (o Options) runner() Runner {
	if o.Run != nil {
		return o.Run
	}
	return execRunner
}

func (o Options) execPath() (string, error) {
	if o.ExecPath != "" {
		return o.ExecPath, nil
	}
	p, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(p)
}
