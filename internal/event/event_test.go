package event

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAppliesDefaults(t *testing.T) {
	ev, err := Decode([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultPackage, ev.Package)
	assert.Equal(t, DefaultApp, ev.App)
	assert.Equal(t, DefaultTitle, ev.Title)
	assert.Equal(t, "", ev.Text)
	assert.Equal(t, int64(0), ev.TimestampMillis)
	assert.Equal(t, DefaultImportance, ev.Importance)
	assert.Equal(t, LevelNormal, ev.Urgency)
	assert.Equal(t, "normal", ev.RawUrgency)
	assert.Equal(t, "", ev.Category)
	assert.False(t, ev.HasIcon())
	assert.False(t, ev.HasPreview())
	assert.Equal(t, time.UnixMilli(0).Local().Format(timeLayout), ev.DisplayTime)
}

func TestDecodeFullPayload(t *testing.T) {
	payload := `{
		"package": "com.example.mail",
		"app": "Mail",
		"title": "New message",
		"text": "Hi",
		"timestamp": 1700000000123,
		"importance": 4,
		"urgency": "high",
		"category": "email",
		"icon": "aWNvbg==",
		"previewImage": "cHJldmlldw=="
	}`
	ev, err := Decode([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, &Event{
		Package:         "com.example.mail",
		App:             "Mail",
		Title:           "New message",
		Text:            "Hi",
		TimestampMillis: 1700000000123,
		Importance:      4,
		Urgency:         LevelHigh,
		RawUrgency:      "high",
		Category:        "email",
		Icon:            "aWNvbg==",
		Preview:         "cHJldmlldw==",
		DisplayTime:     time.UnixMilli(1700000000123).Local().Format(timeLayout),
	}, ev)
	assert.True(t, ev.HasIcon())
	assert.True(t, ev.HasPreview())
}

func TestDecodeWrongTypesFallBackToDefaults(t *testing.T) {
	ev, err := Decode([]byte(`{"app": 42, "title": null, "importance": "high", "timestamp": true, "urgency": 1, "icon": {}}`))
	require.NoError(t, err)

	assert.Equal(t, DefaultApp, ev.App)
	assert.Equal(t, DefaultTitle, ev.Title)
	assert.Equal(t, DefaultImportance, ev.Importance)
	assert.Equal(t, int64(0), ev.TimestampMillis)
	assert.Equal(t, LevelNormal, ev.Urgency)
	assert.False(t, ev.HasIcon())
}

func TestDecodeKeepsPresentEmptyStrings(t *testing.T) {
	ev, err := Decode([]byte(`{"app": "", "title": ""}`))
	require.NoError(t, err)
	assert.Equal(t, "", ev.App)
	assert.Equal(t, "", ev.Title)
}

func TestDecodeFloatNumbers(t *testing.T) {
	ev, err := Decode([]byte(`{"timestamp": 1.7e12, "importance": 2.9}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1.7e12), ev.TimestampMillis)
	assert.Equal(t, 2, ev.Importance)
}

func TestDecodeUnrepresentableTimestamp(t *testing.T) {
	for _, payload := range []string{
		`{"timestamp": 1e300}`,
		`{"timestamp": -1e300}`,
		`{"timestamp": 100000000000000000}`,
	} {
		ev, err := Decode([]byte(payload))
		require.NoError(t, err, payload)
		assert.Equal(t, UnknownTime, ev.DisplayTime, payload)
		assert.True(t, ev.Time().IsZero())
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, payload := range []string{
		"not json",
		"",
		`["array"]`,
		`"string"`,
		`{"app": "Mail"`,
		"{\"app\": \"\xff\"}",
	} {
		ev, err := Decode([]byte(payload))
		require.ErrorIs(t, err, ErrMalformedPayload, payload)
		assert.Nil(t, ev)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"high":    LevelHigh,
		"normal":  LevelNormal,
		"low":     LevelLow,
		"minimal": LevelMinimal,
		"LOW":     LevelNormal,
		"High":    LevelNormal,
		"":        LevelNormal,
		"urgent":  LevelNormal,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, UnknownTime, FormatTimestamp(math.MaxInt64))
	assert.Equal(t, UnknownTime, FormatTimestamp(math.MinInt64))
	assert.Equal(t, time.UnixMilli(86_400_000).Local().Format(timeLayout), FormatTimestamp(86_400_000))
}

func TestDecodeNegativeTimestampBeforeEpoch(t *testing.T) {
	ev, err := Decode([]byte(`{"timestamp": -1000}`))
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(-1000).Local().Format(timeLayout), ev.DisplayTime)
	assert.NotEqual(t, UnknownTime, ev.DisplayTime)
}
