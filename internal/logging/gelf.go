package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// syslog severities used by GELF
const (
	gelfError   int32 = 3
	gelfWarning int32 = 4
	gelfInfo    int32 = 6
	gelfDebug   int32 = 7
)

// MessageWriter is the part of gelf.Writer the handler uses.
type MessageWriter interface {
	WriteMessage(m *gelf.Message) error
}

// GelfHandler ships slog records to Graylog as GELF messages. Attributes
// become additional fields.
type GelfHandler struct {
	w        MessageWriter
	host     string
	facility string
	attrs    []slog.Attr
	group    string
}

// NewGelfHandler returns a handler writing to w.
func NewGelfHandler(w MessageWriter, facility string) *GelfHandler {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return &GelfHandler{w: w, host: host, facility: facility}
}

// DialGraylog opens a UDP GELF writer to addr.
func DialGraylog(addr, facility string) (*gelf.Writer, *GelfHandler, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("graylog %s: %w", addr, err)
	}
	w.Facility = facility
	return w, NewGelfHandler(w, facility), nil
}

// Enabled accepts every level; the manager filters.
func (h *GelfHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle converts the record and writes it.
func (h *GelfHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	add := func(a slog.Attr) {
		key := a.Key
		// GELF reserves "id"
		if key == "id" {
			key = "id_"
		}
		extra["_"+key] = a.Value.Resolve().Any()
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(h.qualify(a))
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return h.w.WriteMessage(&gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(ts.UnixNano()) / float64(time.Second),
		Level:    gelfLevel(r.Level),
		Facility: h.facility,
		Extra:    extra,
	})
}

// WithAttrs returns a handler carrying attrs on every message.
func (h *GelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}
	return &c
}

func (h *GelfHandler) qualify(a slog.Attr) slog.Attr {
	if h.group != "" {
		a.Key = h.group + "." + a.Key
	}
	return a
}

// WithGroup prefixes later attribute keys with name.
func (h *GelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.group != "" {
		c.group += "." + name
	} else {
		c.group = name
	}
	return &c
}

func gelfLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return gelfError
	case l >= slog.LevelWarn:
		return gelfWarning
	case l >= slog.LevelInfo:
		return gelfInfo
	default:
		return gelfDebug
	}
}
