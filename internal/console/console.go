// ABOUTME: Human-readable console echo of received notifications and relay status.
// ABOUTME: Colours are applied only when writing to a terminal.

// Package console prints the interactive (non-daemon) view of the relay.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"

	"mqtt2notif/internal/event"
	"mqtt2notif/internal/logging"
)

var urgencyIcons = map[string]string{
	"high":    "🔴",
	"normal":  "🟢",
	"low":     "🔵",
	"minimal": "⚪",
}

// Printer writes console output. A nil *Printer discards everything, which
// is how daemon mode silences the echo.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// New returns a Printer for w, colouring output when w is a terminal.
func New(w io.Writer) *Printer {
	return &Printer{w: w, color: logging.IsTerminal(w)}
}

// NewPlain returns a Printer that never colours output.
func NewPlain(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) paint(s string, colors ...text.Color) string {
	if !p.color || len(colors) == 0 {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

// Event prints the details of one received notification.
func (p *Printer) Event(ev *event.Event) {
	if p == nil || ev == nil {
		return
	}

	icon, ok := urgencyIcons[ev.RawUrgency]
	if !ok {
		icon = urgencyIcons["normal"]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s%s [%s]\n", icon,
		p.paint("New notification from ", text.Bold),
		p.paint(ev.App, text.Bold, text.FgCyan),
		strings.ToUpper(ev.RawUrgency))

	field := func(label, value string) {
		fmt.Fprintf(&b, "   %s %s\n", p.paint(label+":", text.Bold), value)
	}
	field("Title", ev.Title)
	field("Text", ev.Text)
	if ev.Category != "" {
		field("Category", ev.Category)
	}
	when := ev.DisplayTime
	if t := ev.Time(); !t.IsZero() && ev.TimestampMillis != 0 {
		when += " (" + humanize.Time(t) + ")"
	}
	field("Time", p.paint(when, text.FgHiBlack))
	field("Package", ev.Package)
	field("Urgency", fmt.Sprintf("%s (importance: %d)", ev.RawUrgency, ev.Importance))

	p.println(strings.TrimRight(b.String(), "\n"))
}

// Step prints an indented progress line, such as image handling detail.
func (p *Printer) Step(format string, args ...any) {
	if p == nil {
		return
	}
	p.println("   " + fmt.Sprintf(format, args...))
}

// Success prints a green check line.
func (p *Printer) Success(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(p.paint("✓ "+fmt.Sprintf(format, args...), text.FgGreen))
}

// Warn prints a yellow warning line.
func (p *Printer) Warn(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(p.paint("⚠ "+fmt.Sprintf(format, args...), text.FgYellow))
}

// Fail prints a red failure line.
func (p *Printer) Fail(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(p.paint("✗ "+fmt.Sprintf(format, args...), text.FgRed))
}

// Header prints a highlighted banner line.
func (p *Printer) Header(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(p.paint(fmt.Sprintf(format, args...), text.FgHiMagenta))
}

// Info prints a blue status line.
func (p *Printer) Info(format string, args ...any) {
	if p == nil {
		return
	}
	p.println(p.paint(fmt.Sprintf(format, args...), text.FgBlue))
}
