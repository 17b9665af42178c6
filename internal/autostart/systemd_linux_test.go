//go:build linux

package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commandLog struct {
	calls []string
	fail  map[string]bool
}

func (c *commandLog) run(name string, args ...string) error {
	call := name + " " + strings.Join(args, " ")
	c.calls = append(c.calls, call)
	if c.fail[call] {
		return errors.New("exit status 3")
	}
	return nil
}

func testOptions(t *testing.T, log *commandLog) Options {
	return Options{
		ExecPath:   "/opt/mqtt2notif/bin/mqtt2notif",
		ConfigPath: "/home/me/.config/mqtt2notif/config.toml",
		UnitDir:    filepath.Join(t.TempDir(), "systemd", "user"),
		Run:        log.run,
	}
}

func TestInstallWritesUnitAndEnables(t *testing.T) {
	log := &commandLog{}
	o := testOptions(t, log)

	require.NoError(t, Install(o))

	unit, err := os.ReadFile(filepath.Join(o.UnitDir, ServiceName))
	require.NoError(t, err)
	assert.Contains(t, string(unit),
		`ExecStart="/opt/mqtt2notif/bin/mqtt2notif" --daemon --config "/home/me/.config/mqtt2notif/config.toml"`)
	assert.Contains(t, string(unit), "WantedBy=default.target")

	assert.Equal(t, []string{
		"systemctl --user stop mqtt2notif.service",
		"systemctl --user daemon-reload",
		"systemctl --user enable --now mqtt2notif.service",
	}, log.calls)
}

func TestInstallReportsEnableFailure(t *testing.T) {
	log := &commandLog{fail: map[string]bool{"systemctl --user enable --now mqtt2notif.service": true}}
	err := Install(testOptions(t, log))
	assert.ErrorContains(t, err, "could not enable service")
}

func TestUninstallRemovesUnit(t *testing.T) {
	log := &commandLog{}
	o := testOptions(t, log)
	require.NoError(t, Install(o))

	require.NoError(t, Uninstall(o))
	_, err := os.Stat(filepath.Join(o.UnitDir, ServiceName))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, Uninstall(o))
}

func TestQuery(t *testing.T) {
	log := &commandLog{}
	o := testOptions(t, log)

	st := Query(o)
	assert.False(t, st.Installed)
	assert.False(t, st.Active)

	require.NoError(t, Install(o))
	st = Query(o)
	assert.True(t, st.Installed)
	assert.True(t, st.Active)

	log.fail = map[string]bool{"systemctl --user is-active --quiet mqtt2notif.service": true}
	st = Query(o)
	assert.True(t, st.Installed)
	assert.False(t, st.Active)
}
