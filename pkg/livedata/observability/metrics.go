package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records livedata metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordMutation records a store mutation that touched count items.
	RecordMutation(ctx context.Context, source, op string, count int)

	// RecordQueueFlush records a queue flush of entries calls.
	RecordQueueFlush(ctx context.Context, entries int, duration time.Duration, err error)

	// RecordViewChange records count ids entering, leaving, or changing in a view.
	RecordViewChange(ctx context.Context, op string, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	mutations    metric.Int64Counter
	batchSize    metric.Int64Histogram
	flushes      metric.Int64Counter
	flushSize    metric.Int64Histogram
	flushLatency metric.Float64Histogram
	viewChanges  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("livedata")

	mutations, err := meter.Int64Counter("livedata.store.mutations",
		metric.WithDescription("Number of store mutations"),
	)
	if err != nil {
		return nil, err
	}

	batchSize, err := meter.Int64Histogram("livedata.store.items",
		metric.WithDescription("Items touched per store mutation"),
	)
	if err != nil {
		return nil, err
	}

	flushes, err := meter.Int64Counter("livedata.queue.flushes",
		metric.WithDescription("Number of queue flushes"),
	)
	if err != nil {
		return nil, err
	}

	flushSize, err := meter.Int64Histogram("livedata.queue.flush_size",
		metric.WithDescription("Queued calls executed per flush"),
	)
	if err != nil {
		return nil, err
	}

	flushLatency, err := meter.Float64Histogram("livedata.queue.flush_latency_ms",
		metric.WithDescription("Queue flush latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	viewChanges, err := meter.Int64Counter("livedata.view.changes",
		metric.WithDescription("Ids added, updated, or removed by view synchronisation"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		mutations:    mutations,
		batchSize:    batchSize,
		flushes:      flushes,
		flushSize:    flushSize,
		flushLatency: flushLatency,
		viewChanges:  viewChanges,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordMutation records a store mutation.
func (m *otelMetrics) RecordMutation(ctx context.Context, source, op string, count int) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("op", op),
	)
	m.mutations.Add(ctx, 1, attrs)
	m.batchSize.Record(ctx, int64(count), attrs)
}

// RecordQueueFlush records a queue flush.
func (m *otelMetrics) RecordQueueFlush(ctx context.Context, entries int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.flushes.Add(ctx, 1, attrs)
	m.flushSize.Record(ctx, int64(entries), attrs)
	m.flushLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordViewChange records view membership changes.
func (m *otelMetrics) RecordViewChange(ctx context.Context, op string, count int) {
	m.viewChanges.Add(ctx, int64(count), metric.WithAttributes(attribute.String("op", op)))
}
