// ABOUTME: Decodes inbound JSON notification payloads into typed events.
// ABOUTME: Every field is optional; missing or wrong-typed fields fall back to defaults.

// Package event parses the notification messages published by the phone.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Field defaults applied when a key is absent or has the wrong JSON type.
const (
	DefaultPackage    = "unknown"
	DefaultApp        = "Unknown App"
	DefaultTitle      = "Notification"
	DefaultImportance = 3

	// UnknownTime is shown when the timestamp cannot be represented.
	UnknownTime = "Unknown"

	timeLayout = "2006-01-02 15:04:05"
)

// ErrMalformedPayload is returned when a message is not a JSON object.
var ErrMalformedPayload = errors.New("malformed payload")

// Level is the sender-side urgency of a notification.
type Level string

const (
	LevelHigh    Level = "high"
	LevelNormal  Level = "normal"
	LevelLow     Level = "low"
	LevelMinimal Level = "minimal"
)

// ParseLevel matches the exact lowercase literals only; anything else,
// including "LOW" or "", is LevelNormal.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelHigh, LevelLow, LevelMinimal:
		return Level(s)
	default:
		return LevelNormal
	}
}

// Event is one decoded notification message.
type Event struct {
	Package         string
	App             string
	Title           string
	Text            string
	TimestampMillis int64
	Importance      int
	Urgency         Level
	// RawUrgency is the urgency string as sent, for display.
	RawUrgency string
	Category   string
	// Icon and Preview hold base64 image text; empty means absent.
	Icon    string
	Preview string
	// DisplayTime is TimestampMillis rendered in local time, or UnknownTime.
	DisplayTime string
}

// HasIcon reports whether the event carries an icon image.
func (e *Event) HasIcon() bool { return e.Icon != "" }

// HasPreview reports whether the event carries a preview image.
func (e *Event) HasPreview() bool { return e.Preview != "" }

// Decode parses payload into an Event. Only a payload that is not a JSON
// object fails; individual field problems are absorbed by defaults.
func Decode(payload []byte) (*Event, error) {
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformedPayload)
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	rawUrgency := stringField(fields, "urgency", string(LevelNormal))
	ts := intField(fields, "timestamp", 0)

	ev := &Event{
		Package:         stringField(fields, "package", DefaultPackage),
		App:             stringField(fields, "app", DefaultApp),
		Title:           stringField(fields, "title", DefaultTitle),
		Text:            stringField(fields, "text", ""),
		TimestampMillis: ts,
		Importance:      int(intField(fields, "importance", DefaultImportance)),
		Urgency:         ParseLevel(rawUrgency),
		RawUrgency:      rawUrgency,
		Category:        stringField(fields, "category", ""),
		Icon:            stringField(fields, "icon", ""),
		Preview:         stringField(fields, "previewImage", ""),
		DisplayTime:     FormatTimestamp(ts),
	}
	return ev, nil
}

func stringField(fields map[string]json.RawMessage, key, def string) string {
	raw, ok := fields[key]
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return def
	}
	return s
}

// intField accepts integers and floats (truncated). Floats beyond the int64
// range saturate so the timestamp formatter can report them as unknown.
func intField(fields map[string]json.RawMessage, key string, def int64) int64 {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return def
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return def
	}
	switch {
	case math.IsNaN(f):
		return def
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// FormatTimestamp renders milliseconds since the epoch in local time.
// Values outside years 1-9999 yield UnknownTime.
func FormatTimestamp(ms int64) string {
	if ms == math.MaxInt64 || ms == math.MinInt64 {
		return UnknownTime
	}
	t := time.UnixMilli(ms).Local()
	if y := t.Year(); y < 1 || y > 9999 {
		return UnknownTime
	}
	return t.Format(timeLayout)
}

// Time returns the event timestamp, or the zero time when it is not representable.
func (e *Event) Time() time.Time {
	if e.DisplayTime == UnknownTime {
		return time.Time{}
	}
	return time.UnixMilli(e.TimestampMillis)
}
