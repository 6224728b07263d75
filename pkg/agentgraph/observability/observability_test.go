package observability

import (
	"bytes"
	"context"
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

func TestEnrichLogger(t *testing.T) {
	assert.Nil(t, EnrichLogger(nil, "r", "t", "n"))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	EnrichLogger(logger, "run-1", "thread-1", "agent").Info("hello")

	out := buf.String()
	assert.Contains(t, out, "run_id=run-1")
	assert.Contains(t, out, "thread_id=thread-1")
	assert.Contains(t, out, "node_id=agent")
}

func TestLogHelpers_NilLoggerSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "r", "t", "entry")
		LogRunComplete(nil, "r", 1.0, 3)
		LogRunInterrupted(nil, "r", "n", "interrupt_before", 2)
		LogRunError(nil, "r", errors.New("boom"), 1.0, "n")
		LogNodeStart(nil, "n", 1)
		LogNodeComplete(nil, "n", 1.0, "next")
		LogNodeError(nil, "n", errors.New("boom"))
		LogToolCall(nil, "search", "c1", 1.0, nil)
		LogCheckpoint(nil, "t", 1, "step", 128)
		LogCheckpointError(nil, "t", "put", errors.New("boom"))
	})
}

func TestLogToolCall_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	LogToolCall(logger, "search", "c1", 2.0, nil)
	assert.Contains(t, buf.String(), "level=DEBUG")

	buf.Reset()
	LogToolCall(logger, "search", "c1", 2.0, errors.New("boom"))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "boom")
}

func TestMetricsRecorder_RecordsThroughGlobalProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	rec := NewMetricsRecorder()
	ctx := context.Background()
	rec.RecordNodeExecution(ctx, "agent", 5*time.Millisecond, nil)
	rec.RecordNodeExecution(ctx, "agent", 5*time.Millisecond, errors.New("boom"))
	rec.RecordGraphRun(ctx, true, 20*time.Millisecond)
	rec.RecordToolCall(ctx, "search", 3*time.Millisecond, nil)
	rec.RecordCheckpoint(ctx, "thread-1", 2048)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	for _, want := range []string{
		"agentgraph.node.executions",
		"agentgraph.node.latency_ms",
		"agentgraph.node.errors",
		"agentgraph.graph.runs",
		"agentgraph.graph.latency_ms",
		"agentgraph.tool.calls",
		"agentgraph.tool.latency_ms",
		"agentgraph.checkpoint.size_bytes",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestSpanManager_RunAndNodeSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))

	sm := NewSpanManager()
	ctx, runSpan := sm.StartRunSpan(context.Background(), "run-1", "thread-1")
	nodeCtx, nodeSpan := sm.StartNodeSpan(ctx, "agent", 1)
	sm.AddSpanEvent(nodeCtx, "tool dispatched", attribute.String("tool", "search"))
	sm.EndSpanWithError(nodeSpan, errors.New("boom"))
	sm.EndSpanWithError(runSpan, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	byName := map[string]tracetest.SpanStub{}
	for _, s := range spans {
		byName[s.Name] = s
	}

	node, ok := byName["agentgraph.node.agent"]
	require.True(t, ok)
	assert.Equal(t, codes.Error, node.Status.Code)
	assert.Equal(t, "boom", node.Status.Description)
	require.Len(t, node.Events, 1)
	assert.Equal(t, "tool dispatched", node.Events[0].Name)

	run, ok := byName["agentgraph.run"]
	require.True(t, ok)
	assert.Equal(t, codes.Ok, run.Status.Code)
	assert.Equal(t, run.SpanContext.SpanID(), node.Parent.SpanID(),
		"node span must be a child of the run span")
}

func TestNoopImplementations(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		NoopMetrics{}.RecordNodeExecution(ctx, "n", time.Millisecond, nil)
		NoopMetrics{}.RecordGraphRun(ctx, true, time.Millisecond)
		NoopMetrics{}.RecordToolCall(ctx, "t", time.Millisecond, nil)
		NoopMetrics{}.RecordCheckpoint(ctx, "t", 1)
	})

	sm := NoopSpanManager{}
	spanCtx, span := sm.StartRunSpan(ctx, "r", "t")
	assert.NotNil(t, spanCtx)
	assert.NotNil(t, span)
	assert.NotPanics(t, func() { sm.EndSpanWithError(span, errors.New("boom")) })
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 0.0)
}
