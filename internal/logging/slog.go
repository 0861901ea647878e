// Package logging wires structured logging for the extension: slog fans
// records out to the console or session log file, the OTel bridge and
// Graylog, and a zerolog adapter serves the dispatcher's command trail.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// SlogManager owns the process logger. Setup may run more than once: the
// extension logs to init.log until the config names the session log.
type SlogManager struct {
	mu     sync.RWMutex
	logger *slog.Logger
	level  slog.LevelVar

	logProvider *sdklog.LoggerProvider

	extra   []slog.Handler
	context ContextProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel maps a config level name to a slog level; unknown names are
// info.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AddHandler registers an extra sink, such as Graylog, for the next Setup.
func (m *SlogManager) AddHandler(h slog.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h != nil {
		m.extra = append(m.extra, h)
	}
}

// SetContextProvider makes every record carry the attributes p returns.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.context = p
}

// SetLevel changes the level of every sink built by Setup, without
// reopening them.
func (m *SlogManager) SetLevel(level string) {
	m.level.Set(parseLevel(level))
}

// Level reports the active level.
func (m *SlogManager) Level() slog.Level {
	return m.level.Level()
}

// Setup builds the logger. Records go to file, or stdout when file is nil,
// plus the OTel bridge when provider is non-nil and every AddHandler sink.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	m.level.Set(parseLevel(level))
	if file == nil {
		file = os.Stdout
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(file, &slog.HandlerOptions{Level: &m.level, ReplaceAttr: utcTime}),
	}
	if provider != nil {
		bridge := otelslog.NewHandler("vehiclectl", otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, levelFilter{Handler: bridge, min: &m.level})
	}

	m.mu.Lock()
	for _, h := range m.extra {
		handlers = append(handlers, levelFilter{Handler: h, min: &m.level})
	}
	var root slog.Handler = NewMultiHandler(handlers...)
	if m.context != nil {
		root = NewContextHandler(root, m.context)
	}
	m.logProvider = provider
	m.logger = slog.New(root)
	logger := m.logger
	m.mu.Unlock()

	logger.Info("Logging initialized", "level", level)
}

// utcTime renders record times as RFC3339 UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Logger returns the configured logger, slog.Default before Setup.
func (m *SlogManager) Logger() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	m.mu.RLock()
	p := m.logProvider
	m.mu.RUnlock()
	if p == nil {
		return nil
	}
	return p.ForceFlush(ctx)
}

// WriteLog writes a host-supplied log line tagged with the calling
// function.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	m.mu.RLock()
	l := m.logger
	m.mu.RUnlock()
	if l == nil {
		return
	}
	l.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
