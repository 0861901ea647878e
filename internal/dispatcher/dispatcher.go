// Package dispatcher routes host commands to handlers. A handler runs
// synchronously on the calling thread unless it is registered Buffered, in
// which case a dedicated worker drains its queue in arrival order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrClosed is returned for buffered commands dispatched after Close.
var ErrClosed = errors.New("dispatcher closed")

// Event is one command call from the host engine. Commands raised inside
// the extension carry already parsed data in Payload instead of Args.
type Event struct {
	Command   string
	Args      []string
	Payload   any
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*route)

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(r *route) { r.bufferSize = size }
}

// Blocking makes a buffered handler wait for queue space instead of
// dropping the event.
func Blocking() Option {
	return func(r *route) { r.blocking = true }
}

// Logged adds debug logging around the handler.
func Logged() Option {
	return func(r *route) { r.logged = true }
}

type route struct {
	command    string
	handler    HandlerFunc
	bufferSize int
	blocking   bool
	logged     bool
	queue      chan Event
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	routes map[string]*route
	logger Logger
	ins    *instruments

	// mu guards queues and closed; senders hold it for reading so Close
	// never closes a channel under a pending send.
	mu      sync.RWMutex
	queues  map[string]chan Event
	closed  bool
	workers sync.WaitGroup
}

// New creates a Dispatcher reporting to the global OTel meter.
func New(logger Logger) (*Dispatcher, error) {
	return NewWithMeter(logger, defaultMeter())
}

// NewWithMeter creates a Dispatcher reporting to m.
func NewWithMeter(logger Logger, m metric.Meter) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: make(map[string]*route),
		queues: make(map[string]chan Event),
		logger: logger,
	}
	ins, err := newInstruments(m, d.Queues)
	if err != nil {
		return nil, err
	}
	d.ins = ins
	return d, nil
}

// Register adds a handler for the given command. Registering a command
// again replaces its handler; the old queue, if any, drains and stops.
// Handlers are registered during setup, before the first Dispatch.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	r := &route{command: command}
	for _, opt := range opts {
		opt(r)
	}
	r.handler = d.timed(command, h)

	d.mu.Lock()
	if old, ok := d.queues[command]; ok {
		if !d.closed {
			close(old)
		}
		delete(d.queues, command)
	}
	if r.bufferSize > 0 && !d.closed {
		r.queue = make(chan Event, r.bufferSize)
		d.queues[command] = r.queue
		d.workers.Add(1)
		go d.drain(r)
	}
	d.mu.Unlock()

	d.routes[command] = r
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	r, ok := d.routes[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if !r.logged {
		return d.invoke(r, e)
	}

	start := time.Now()
	d.logger.Debug("handling event", "command", r.command, "args", len(e.Args))
	result, err := d.invoke(r, e)
	if err != nil {
		d.logger.Error("event failed", "command", r.command, "duration", time.Since(start), "error", err)
	} else {
		d.logger.Debug("event complete", "command", r.command, "duration", time.Since(start))
	}
	return result, err
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.routes[command]
	return ok
}

// Commands lists the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	return slices.Sorted(maps.Keys(d.routes))
}

// QueueLen reports how many events wait in the buffer of command.
func (d *Dispatcher) QueueLen(command string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.queues[command])
}

// Queues reports the backlog of every buffered command.
func (d *Dispatcher) Queues() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.queues))
	for cmd, q := range d.queues {
		out[cmd] = len(q)
	}
	return out
}

// Close stops accepting buffered events and waits until everything already
// queued has been handled. Synchronous handlers keep working.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) invoke(r *route, e Event) (any, error) {
	switch {
	case r.bufferSize == 0:
		return r.handler(e)
	case r.queue == nil:
		return nil, ErrClosed
	}
	return d.enqueue(r, e)
}

func (d *Dispatcher) enqueue(r *route, e Event) (any, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrClosed
	}
	if r.blocking {
		r.queue <- e
		return "queued", nil
	}
	select {
	case r.queue <- e:
		return "queued", nil
	default:
		d.ins.dropped.Add(context.Background(), 1, commandAttr(r.command))
		return nil, fmt.Errorf("queue full: %s", r.command)
	}
}

func (d *Dispatcher) drain(r *route) {
	defer d.workers.Done()
	attr := commandAttr(r.command)
	for e := range r.queue {
		if _, err := r.handler(e); err != nil {
			d.logger.Error("buffered event failed", "command", r.command, "error", err)
		}
		d.ins.processed.Add(context.Background(), 1, attr)
	}
}

func (d *Dispatcher) timed(command string, h HandlerFunc) HandlerFunc {
	attr := commandAttr(command)
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)
		d.ins.duration.Record(context.Background(), float64(time.Since(start).Microseconds())/1000, attr)
		return result, err
	}
}
