package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/RacingGame/vehiclectl/internal/dispatcher"

// Metric names reported by the dispatcher.
const (
	MetricQueueSize      = "dispatcher.queue.size"
	MetricEventsHandled  = "dispatcher.events.processed"
	MetricEventsDropped  = "dispatcher.events.dropped"
	MetricHandlerLatency = "dispatcher.handler.duration"
)

// defaultMeter comes from the global provider, a no-op until one is installed.
func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}

type instruments struct {
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	duration  metric.Float64Histogram
}

// newInstruments creates the dispatcher instruments on m. queues is
// sampled by the gauge callback at collection time.
func newInstruments(m metric.Meter, queues func() map[string]int) (*instruments, error) {
	var (
		ins instruments
		err error
	)

	if ins.queueSize, err = m.Int64ObservableGauge(MetricQueueSize,
		metric.WithDescription("Current number of events in queue"),
	); err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		for cmd, n := range queues() {
			o.ObserveInt64(ins.queueSize, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
		}
		return nil
	}, ins.queueSize); err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	if ins.processed, err = m.Int64Counter(MetricEventsHandled,
		metric.WithDescription("Total buffered events handled"),
	); err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}
	if ins.dropped, err = m.Int64Counter(MetricEventsDropped,
		metric.WithDescription("Total events dropped due to full queue"),
	); err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	if ins.duration, err = m.Float64Histogram(MetricHandlerLatency,
		metric.WithDescription("Handler execution time"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &ins, nil
}

func commandAttr(command string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("command", command))
}
