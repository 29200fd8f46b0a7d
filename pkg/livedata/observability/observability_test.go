package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newJSONLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLogHelpersNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogMutation(nil, "add", 1, nil)
		LogDeprecatedTypes(nil, map[string]string{"a": "number"})
		LogSkippedEntry(nil, "update", 0, 1)
		LogFlush(nil, 1, 1)
		LogFlushError(nil, 0, errors.New("x"))
		LogRefetchError(nil, 1, errors.New("x"))
		LogPipeError(nil, "add", errors.New("x"))
	})
	assert.Nil(t, EnrichLogger(nil, "tasks"))
}

func TestLogHelpersAttributes(t *testing.T) {
	logger, buf := newJSONLogger()
	logger = EnrichLogger(logger, "tasks")

	LogMutation(logger, "add", 3, "ui")
	LogSkippedEntry(logger, "update", 2, 42)
	LogFlushError(logger, 1, errors.New("boom"))

	recs := decodeRecords(t, buf)
	require.Len(t, recs, 3)

	assert.Equal(t, "items mutated", recs[0]["msg"])
	assert.Equal(t, "tasks", recs[0]["source"])
	assert.Equal(t, "add", recs[0]["op"])
	assert.Equal(t, float64(3), recs[0]["count"])
	assert.Equal(t, "ui", recs[0]["sender_id"])

	assert.Equal(t, "WARN", recs[1]["level"])
	assert.Equal(t, "int", recs[1]["type"])

	assert.Equal(t, "ERROR", recs[2]["level"])
	assert.Equal(t, "boom", recs[2]["error"])
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 1.0)
}

// setupMetricsTest creates a test meter provider and returns a reader to collect metrics.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop)
}

func TestRecordMutation(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordMutation(context.Background(), "tasks", "add", 4)

	got := findMetric(t, reader, "livedata.store.mutations")
	require.NotNil(t, got)
	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	op, _ := sum.DataPoints[0].Attributes.Value("op")
	assert.Equal(t, "add", op.AsString())

	hist := findMetric(t, reader, "livedata.store.items")
	require.NotNil(t, hist)
	h, ok := hist.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Equal(t, int64(4), h.DataPoints[0].Sum)
}

func TestRecordQueueFlush(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordQueueFlush(context.Background(), 3, 5*time.Millisecond, nil)
	m.RecordQueueFlush(context.Background(), 1, time.Millisecond, errors.New("x"))

	got := findMetric(t, reader, "livedata.queue.flushes")
	require.NotNil(t, got)
	sum := got.Data.(metricdata.Sum[int64])
	assert.Len(t, sum.DataPoints, 2)

	assert.NotNil(t, findMetric(t, reader, "livedata.queue.flush_size"))
	assert.NotNil(t, findMetric(t, reader, "livedata.queue.flush_latency_ms"))
}

func TestRecordViewChange(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordViewChange(context.Background(), "remove", 2)
	m.RecordViewChange(context.Background(), "remove", 3)

	got := findMetric(t, reader, "livedata.view.changes")
	require.NotNil(t, got)
	sum := got.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
}

// setupTracingTest installs a tracer provider backed by an in-memory exporter.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("livedata")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("livedata")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func TestSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	t.Run("flush span", func(t *testing.T) {
		exporter.Reset()
		ctx, span := sm.StartFlushSpan(context.Background(), 7)
		sm.AddSpanEvent(ctx, "entry.failed", attribute.Int("index", 2))
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "livedata.queue.flush", spans[0].Name)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
		require.Len(t, spans[0].Events, 1)
		assert.Equal(t, "entry.failed", spans[0].Events[0].Name)

		var entries int64
		for _, a := range spans[0].Attributes {
			if a.Key == "queue.entries" {
				entries = a.Value.AsInt64()
			}
		}
		assert.Equal(t, int64(7), entries)
	})

	t.Run("refresh span with error", func(t *testing.T) {
		exporter.Reset()
		_, span := sm.StartRefreshSpan(context.Background(), "open-tasks")
		sm.EndSpanWithError(span, errors.New("upstream gone"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "livedata.view.refresh", spans[0].Name)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "upstream gone", spans[0].Status.Description)
	})

	t.Run("nil span is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { sm.EndSpanWithError(nil, nil) })
	})
}

func TestNoopImplementations(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	var sm SpanManager = NoopSpanManager{}

	assert.NotPanics(t, func() {
		m.RecordMutation(context.Background(), "", "add", 1)
		m.RecordQueueFlush(context.Background(), 1, time.Second, errors.New("x"))
		m.RecordViewChange(context.Background(), "add", 1)

		ctx := context.Background()
		got, span := sm.StartFlushSpan(ctx, 1)
		assert.Equal(t, ctx, got)
		sm.EndSpanWithError(span, errors.New("x"))
		_, span = sm.StartRefreshSpan(ctx, "v")
		sm.AddSpanEvent(ctx, "e")
		sm.EndSpanWithError(span, nil)
	})
}
