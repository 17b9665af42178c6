// ABOUTME: Alert sound selection and playback for received notifications.
// ABOUTME: Matches per-app rules, falls back to an urgency threshold, and plays via beep.

package sound

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"mqtt2notif/internal/config"
	"mqtt2notif/internal/event"
	"mqtt2notif/internal/notify"
)

// None silences a rule match.
const None = "none"

// Player plays a sound file without blocking the caller.
type Player interface {
	Play(path string) error
}

// ParseThreshold maps a min_urgency setting to a notification urgency.
// Empty means critical.
func ParseThreshold(s string) (notify.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return notify.UrgencyLow, nil
	case "normal":
		return notify.UrgencyNormal, nil
	case "", "critical":
		return notify.UrgencyCritical, nil
	}
	return 0, fmt.Errorf("unknown urgency threshold %q", s)
}

type rule struct {
	app     string
	pkg     string
	pattern *regexp.Regexp
	file    string
}

// Alerter decides whether a notification gets a sound and plays it.
type Alerter struct {
	file      string
	threshold notify.Urgency
	rules     []rule
	player    Player
	logger    *slog.Logger
}

// NewAlerter compiles cfg. A nil player disables playback entirely.
func NewAlerter(cfg config.SoundConfig, player Player, logger *slog.Logger) (*Alerter, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	threshold, err := ParseThreshold(cfg.MinUrgency)
	if err != nil {
		return nil, err
	}

	a := &Alerter{file: cfg.File, threshold: threshold, player: player, logger: logger}
	for i, r := range cfg.Rules {
		compiled := rule{app: r.App, pkg: r.Package, file: r.File}
		if r.Pattern != "" {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("sound rule %d: %w", i, err)
			}
			compiled.pattern = re
		}
		a.rules = append(a.rules, compiled)
	}
	return a, nil
}

// Match returns the sound for a notification, or "" for silence. The first
// matching rule wins; otherwise the default file plays at or above the
// threshold.
func (a *Alerter) Match(ev *event.Event, urgency notify.Urgency) string {
	if a == nil || ev == nil {
		return ""
	}
	for _, r := range a.rules {
		if r.matches(ev) {
			if r.file == None {
				return ""
			}
			return r.file
		}
	}
	if a.file != "" && urgency >= a.threshold {
		return a.file
	}
	return ""
}

// Alert plays the matched sound. Playback errors are logged, never returned.
func (a *Alerter) Alert(ev *event.Event, urgency notify.Urgency) {
	if a == nil || a.player == nil {
		return
	}
	path := a.Match(ev, urgency)
	if path == "" {
		return
	}
	if err := a.player.Play(path); err != nil {
		a.logger.Warn("alert sound failed", slog.String("file", path), slog.Any("error", err))
	}
}

func (r rule) matches(ev *event.Event) bool {
	if r.app != "" && r.app != ev.App {
		return false
	}
	if r.pkg != "" && r.pkg != ev.Package {
		return false
	}
	if r.pattern != nil && !r.pattern.MatchString(ev.Title+" "+ev.Text) {
		return false
	}
	return true
}
