package agentgraph

import (
	"log/slog"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/observability"
)

// DefaultMaxSteps is the step limit applied when WithMaxSteps is not given.
// It bounds cyclic graphs that never route to END.
const DefaultMaxSteps = 25

// invokeConfig holds configuration for one graph invocation.
type invokeConfig struct {
	threadID       string
	maxSteps       int
	logger         *slog.Logger
	sinks          *callback.Sinks
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultInvokeConfig returns the default invocation configuration.
func defaultInvokeConfig() invokeConfig {
	return invokeConfig{
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// InvokeOption configures one invocation of a compiled graph.
type InvokeOption func(*invokeConfig)

// WithThreadID sets the logical thread for this invocation. Required when
// the graph was compiled with a checkpointer: checkpoints are keyed by
// thread ID, and invoking an existing thread resumes it.
func WithThreadID(id string) InvokeOption {
	return func(c *invokeConfig) {
		c.threadID = id
	}
}

// WithMaxSteps sets the maximum number of node executions for this
// invocation. Default: DefaultMaxSteps. Exceeding the limit fails the run
// with a MaxStepsError.
func WithMaxSteps(n int) InvokeOption {
	return func(c *invokeConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithLogger sets the logger for this invocation.
// The logger is enriched with run_id, thread_id, and node_id per node.
func WithLogger(logger *slog.Logger) InvokeOption {
	return func(c *invokeConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSinks registers callback sinks receiving lifecycle events for this
// invocation. Sinks are best-effort observers: a failing sink never fails
// the run.
func WithSinks(sinks ...callback.Sink) InvokeOption {
	return func(c *invokeConfig) {
		c.sinks = callback.NewSinks(sinks...)
	}
}

// WithMetrics sets the metrics recorder for this invocation.
// Default: no-op. Use observability.NewMetricsRecorder() for OTel metrics.
func WithMetrics(m observability.MetricsRecorder) InvokeOption {
	return func(c *invokeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry tracing for this invocation using the
// global tracer provider.
func WithTracing() InvokeOption {
	return func(c *invokeConfig) {
		c.tracingEnabled = true
		c.spans = observability.NewSpanManager()
	}
}

// WithSpanManager enables tracing with a custom span manager.
func WithSpanManager(sm observability.SpanManager) InvokeOption {
	return func(c *invokeConfig) {
		if sm != nil {
			c.tracingEnabled = true
			c.spans = sm
		}
	}
}
