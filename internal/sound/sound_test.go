// ABOUTME: Tests for alert sound matching and decoding.
// ABOUTME: Verifies rule precedence, urgency thresholds and supported formats.

package sound

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mqtt2notif/internal/config"
	"mqtt2notif/internal/event"
	"mqtt2notif/internal/notify"
)

type recordingPlayer struct {
	played []string
	err    error
}

func (r *recordingPlayer) Play(path string) error {
	r.played = append(r.played, path)
	return r.err
}

func mail() *event.Event {
	return &event.Event{App: "Mail", Package: "com.example.mail", Title: "Invoice", Text: "Payment due"}
}

func TestParseThreshold(t *testing.T) {
	for in, want := range map[string]notify.Urgency{
		"":         notify.UrgencyCritical,
		"critical": notify.UrgencyCritical,
		"Normal":   notify.UrgencyNormal,
		" low ":    notify.UrgencyLow,
	} {
		got, err := ParseThreshold(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseThreshold("high")
	assert.Error(t, err)
}

func TestMatchThreshold(t *testing.T) {
	a, err := NewAlerter(config.SoundConfig{File: "/s/alert.wav", MinUrgency: "normal"}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "", a.Match(mail(), notify.UrgencyLow))
	assert.Equal(t, "/s/alert.wav", a.Match(mail(), notify.UrgencyNormal))
	assert.Equal(t, "/s/alert.wav", a.Match(mail(), notify.UrgencyCritical))
}

func TestMatchNoDefaultFile(t *testing.T) {
	a, err := NewAlerter(config.SoundConfig{MinUrgency: "low"}, nil, nil)
	require.NoError(t, err)
	if got := a.Match(mail(), notify.UrgencyCritical); got != "" {
		t.Errorf("expected silence without a sound file, got %q", got)
	}
}

func TestMatchRules(t *testing.T) {
	cfg := config.SoundConfig{
		File:       "/s/default.wav",
		MinUrgency: "low",
		Rules: []config.SoundRule{
			{App: "Chat", File: None},
			{Package: "com.example.mail", Pattern: "(?i)payment", File: "/s/cash.ogg"},
			{App: "Mail", File: "/s/mail.flac"},
		},
	}
	a, err := NewAlerter(cfg, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "/s/cash.ogg", a.Match(mail(), notify.UrgencyLow))

	other := mail()
	other.Text = "Lunch?"
	assert.Equal(t, "/s/mail.flac", a.Match(other, notify.UrgencyLow))

	assert.Equal(t, "", a.Match(&event.Event{App: "Chat"}, notify.UrgencyCritical), "none silences")
	assert.Equal(t, "/s/default.wav", a.Match(&event.Event{App: "Calendar"}, notify.UrgencyNormal))
}

func TestNewAlerterRejectsBadInput(t *testing.T) {
	_, err := NewAlerter(config.SoundConfig{MinUrgency: "loud"}, nil, nil)
	assert.Error(t, err)

	_, err = NewAlerter(config.SoundConfig{Rules: []config.SoundRule{{Pattern: "("}}}, nil, nil)
	assert.Error(t, err)
}

func TestAlertPlaysAndSwallowsErrors(t *testing.T) {
	player := &recordingPlayer{err: errors.New("no device")}
	a, err := NewAlerter(config.SoundConfig{File: "/s/a.wav"}, player, nil)
	require.NoError(t, err)

	a.Alert(mail(), notify.UrgencyNormal)
	a.Alert(mail(), notify.UrgencyCritical)
	assert.Equal(t, []string{"/s/a.wav"}, player.played)
}

func TestNilAlerter(t *testing.T) {
	var a *Alerter
	assert.NotPanics(t, func() { a.Alert(mail(), notify.UrgencyCritical) })
}

func TestOpenWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beep.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	format := beep.Format{SampleRate: 22050, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(2205), format))
	require.NoError(t, f.Close())

	streamer, got, err := open(path)
	require.NoError(t, err)
	defer streamer.Close()
	assert.Equal(t, beep.SampleRate(22050), got.SampleRate)
	assert.Equal(t, 2205, streamer.Len())
}

func TestOpenRejects(t *testing.T) {
	_, _, err := open("/tmp/alert.mp3")
	assert.ErrorContains(t, err, "unsupported")

	_, _, err = open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "garbage.flac")
	require.NoError(t, os.WriteFile(garbage, []byte("not audio"), 0o644))
	_, _, err = open(garbage)
	assert.ErrorContains(t, err, "decode garbage.flac")
}
