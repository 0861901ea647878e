package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		level string
		log   func(*DispatcherLogger)
	}{
		{"debug", func(l *DispatcherLogger) { l.Debug("msg", "key1", "value1", "key2", 42) }},
		{"info", func(l *DispatcherLogger) { l.Info("msg", "key1", "value1", "key2", 42) }},
		{"error", func(l *DispatcherLogger) { l.Error("msg", "key1", "value1", "key2", 42) }},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
			tt.log(dl)

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "msg", entry["message"])
			assert.Equal(t, "value1", entry["key1"])
			assert.Equal(t, float64(42), entry["key2"])
		})
	}
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(NewZerolog(&buf, "bogus"))
	dl.Debug("filtered")
	assert.Zero(t, buf.Len(), "unknown level falls back to info")

	dl.Info("kept")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestDispatcherLogger_OddPairs(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf))
	dl.Info("queued", "command", ":RECORD:", 3, "not a key", "dangling")

	entry := decodeLine(t, &buf)
	assert.Equal(t, ":RECORD:", entry["command"])
	assert.NotContains(t, entry, "dangling")
	assert.Len(t, entry, 3, "level, message and command")
}
