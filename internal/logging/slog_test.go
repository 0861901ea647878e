package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesToFile(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)
	m.Logger().Info("hello file")

	assert.Contains(t, buf.String(), "hello file")
	assert.Contains(t, buf.String(), "Logging initialized")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)

	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(&buf1, "info", nil)
	m.Logger().Info("first")
	m.Setup(&buf2, "info", nil)
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	assert.Equal(t, slog.Default(), m.Logger())
	assert.NoError(t, m.Flush(context.Background()))
	m.WriteLog("fn", "data", "info") // no panic
}

func TestWriteLog_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, "debug", nil)

			m.WriteLog("testFunc", level+" message", level)
			assert.Contains(t, buf.String(), level+" message")
			assert.Contains(t, buf.String(), "function=testFunc")
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestSetup_ContextProvider(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{slog.String("session", "race-1"), slog.String("track", "oval")}
	})
	m.Setup(&buf, "info", nil)
	m.Logger().Info("lap")

	assert.Contains(t, buf.String(), "session=race-1")
	assert.Contains(t, buf.String(), "track=oval")
}

type fakeGelf struct {
	msgs []*gelf.Message
	err  error
}

func (f *fakeGelf) WriteMessage(m *gelf.Message) error {
	f.msgs = append(f.msgs, m)
	return f.err
}

func TestSetup_ExtraHandlerRespectsLevel(t *testing.T) {
	fg := &fakeGelf{}
	m := NewSlogManager()
	m.AddHandler(NewGelfHandler(fg, "vehiclectl"))
	m.AddHandler(nil)
	m.Setup(&bytes.Buffer{}, "info", nil)

	m.Logger().Debug("hidden")
	m.Logger().Warn("slide", "vehicle", 3)

	// "Logging initialized" plus the warning
	require.Len(t, fg.msgs, 2)
	msg := fg.msgs[1]
	assert.Equal(t, "slide", msg.Short)
	assert.Equal(t, gelfWarning, msg.Level)
	assert.Equal(t, "vehiclectl", msg.Facility)
	assert.EqualValues(t, 3, msg.Extra["_vehicle"])
}

func TestGelfHandler_AttrsAndGroups(t *testing.T) {
	fg := &fakeGelf{}
	l := slog.New(NewGelfHandler(fg, "f")).With("id", 7).WithGroup("car").With("speed", 12.5)
	l.Error("crash")

	require.Len(t, fg.msgs, 1)
	msg := fg.msgs[0]
	assert.Equal(t, gelfError, msg.Level)
	assert.EqualValues(t, 7, msg.Extra["_id_"])
	assert.Equal(t, 12.5, msg.Extra["_car.speed"])
	assert.Greater(t, msg.TimeUnix, 0.0)
}

func TestGelfLevel(t *testing.T) {
	assert.Equal(t, gelfDebug, gelfLevel(slog.LevelDebug))
	assert.Equal(t, gelfInfo, gelfLevel(slog.LevelInfo))
	assert.Equal(t, gelfWarning, gelfLevel(slog.LevelWarn))
	assert.Equal(t, gelfError, gelfLevel(slog.LevelError+4))
}

func TestMultiHandler_FansOut(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	multi := NewMultiHandler(
		slog.NewTextHandler(&buf1, nil),
		nil,
		slog.NewTextHandler(&buf2, nil),
	)
	require.Len(t, multi.handlers, 2)

	slog.New(multi).Info("fanned out")
	assert.Contains(t, buf1.String(), "fanned out")
	assert.Contains(t, buf2.String(), "fanned out")
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	failing := NewGelfHandler(&fakeGelf{err: errors.New("udp down")}, "f")
	multi := NewMultiHandler(failing, slog.NewTextHandler(&buf, nil))

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "still delivered", 0)
	err := multi.Handle(context.Background(), r)

	assert.ErrorContains(t, err, "udp down")
	assert.Contains(t, buf.String(), "still delivered")
}

func TestMultiHandler_Enabled(t *testing.T) {
	info := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	errOnly := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	assert.True(t, NewMultiHandler(info, errOnly).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewMultiHandler(errOnly).Enabled(context.Background(), slog.LevelInfo))
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), nil)
	slog.New(h).With("k", "v").WithGroup("").Info("plain")
	assert.Contains(t, buf.String(), "k=v")
}

func TestSetLevel_AppliesToAllSinks(t *testing.T) {
	var buf bytes.Buffer
	fg := &fakeGelf{}
	m := NewSlogManager()
	m.AddHandler(NewGelfHandler(fg, "vehiclectl"))
	m.Setup(&buf, "info", nil)

	m.Logger().Debug("before")
	m.SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, m.Level())
	m.Logger().Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
	require.Len(t, fg.msgs, 2)
	assert.Equal(t, "after", fg.msgs[1].Short)
}
