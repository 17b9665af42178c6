package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mqtt2notif/internal/event"
)

func TestEventPrintsAllFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Event(&event.Event{
		Package: "com.example.mail", App: "Mail", Title: "New message", Text: "Hi",
		RawUrgency: "high", Urgency: event.LevelHigh, Importance: 4, Category: "email",
		DisplayTime: event.UnknownTime,
	})

	out := buf.String()
	assert.Contains(t, out, "🔴 New notification from Mail [HIGH]")
	assert.Contains(t, out, "Title: New message")
	assert.Contains(t, out, "Text: Hi")
	assert.Contains(t, out, "Category: email")
	assert.Contains(t, out, "Time: Unknown")
	assert.Contains(t, out, "Package: com.example.mail")
	assert.Contains(t, out, "Urgency: high (importance: 4)")
	assert.NotContains(t, out, "\x1b[", "plain printer emits no escapes")
}

func TestEventOmitsEmptyCategoryAndFallsBackIcon(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).Event(&event.Event{App: "X", RawUrgency: "LOUD", DisplayTime: event.UnknownTime})

	assert.Contains(t, buf.String(), "🟢 New notification from X [LOUD]")
	assert.NotContains(t, buf.String(), "Category:")
}

func TestEventShowsRelativeTime(t *testing.T) {
	var buf bytes.Buffer
	ms := time.Now().AddDate(-3, 0, 0).UnixMilli()
	NewPlain(&buf).Event(&event.Event{App: "X", TimestampMillis: ms, DisplayTime: event.FormatTimestamp(ms)})
	assert.Contains(t, buf.String(), "years ago)")
}

func TestEventWithoutTimestampHasNoRelativeTime(t *testing.T) {
	var buf bytes.Buffer
	NewPlain(&buf).Event(&event.Event{App: "X", DisplayTime: event.FormatTimestamp(0)})
	assert.Contains(t, buf.String(), "Time: "+event.FormatTimestamp(0)+"\n")
	assert.NotContains(t, buf.String(), "ago)")
}

func TestNilPrinterIsSilent(t *testing.T) {
	var p *Printer
	assert.NotPanics(t, func() {
		p.Event(&event.Event{})
		p.Success("x")
		p.Warn("x")
		p.Fail("x")
		p.Step("x")
		p.Header("x")
		p.Info("x")
	})
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)
	p.Success("Connected to %s", "broker:1883")
	p.Fail("boom")
	assert.Equal(t, "✓ Connected to broker:1883\n✗ boom\n", buf.String())
}
