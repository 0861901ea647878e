package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// DispatcherLogger is the command trail: one JSON line per dispatcher
// event, written with zerolog so the per-step path stays allocation-light.
type DispatcherLogger struct {
	logger zerolog.Logger
}

func NewDispatcherLogger(logger zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger}
}

// NewZerolog builds the trail logger writing JSON lines to w. Unknown
// levels fall back to info.
func NewZerolog(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "dispatcher").Logger()
}

func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	write(l.logger.Debug(), msg, keysAndValues)
}

func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	write(l.logger.Info(), msg, keysAndValues)
}

func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	write(l.logger.Error(), msg, keysAndValues)
}

// write attaches slog-style key/value pairs; zerolog skips non-string keys
// and a dangling key.
func write(e *zerolog.Event, msg string, keysAndValues []any) {
	if e == nil {
		return
	}
	if len(keysAndValues) > 0 {
		e = e.Fields(keysAndValues)
	}
	e.Msg(msg)
}
