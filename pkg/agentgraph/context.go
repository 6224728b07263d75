package agentgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/observability"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
)

// Context provides execution context to nodes and route functions.
// It extends context.Context with run-scoped services and metadata.
//
// Context is immutable after creation. The executor creates derived contexts
// for each node with updated NodeID and enriched logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and node
	// context. Never returns nil.
	Logger() *slog.Logger

	// Store returns the shared key-value store, or nil if the graph was
	// compiled without one. Nodes should check for nil before using.
	Store() store.Store

	// Events returns the callback sink composite for emitting lifecycle
	// events. May be nil; the composite's Emit is nil-safe.
	Events() *callback.Sinks

	// Metrics returns the metrics recorder. Never nil; defaults to a no-op.
	Metrics() observability.MetricsRecorder

	// Metadata

	// RunID returns the unique identifier for this invocation.
	// Auto-generated if not configured.
	RunID() string

	// ThreadID returns the logical thread being executed, or "" when the
	// graph runs without checkpointing.
	ThreadID() string

	// NodeID returns the current node being executed.
	// Empty string outside node execution.
	NodeID() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger   *slog.Logger
	kvStore  store.Store
	events   *callback.Sinks
	metrics  observability.MetricsRecorder
	runID    string
	threadID string
	nodeID   string
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// Store returns the shared key-value store.
func (c *executionContext) Store() store.Store {
	return c.kvStore
}

// Events returns the callback sink composite.
func (c *executionContext) Events() *callback.Sinks {
	return c.events
}

// Metrics returns the metrics recorder.
func (c *executionContext) Metrics() observability.MetricsRecorder {
	return c.metrics
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// ThreadID returns the thread identifier.
func (c *executionContext) ThreadID() string {
	return c.threadID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// ContextOption configures a Context built with NewContext.
type ContextOption func(*executionContext)

// WithContextLogger sets the logger for the context.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextStore sets the shared key-value store for the context.
func WithContextStore(s store.Store) ContextOption {
	return func(c *executionContext) {
		c.kvStore = s
	}
}

// WithContextEvents sets the callback sink composite for the context.
func WithContextEvents(sinks *callback.Sinks) ContextOption {
	return func(c *executionContext) {
		c.events = sinks
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// WithContextThreadID sets the thread identifier for the context.
func WithContextThreadID(id string) ContextOption {
	return func(c *executionContext) {
		c.threadID = id
	}
}

// NewContext creates an execution context from a standard context.
// The executor builds its own contexts during Invoke; NewContext exists so
// node and route functions can be exercised directly in tests.
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNodeID returns a new context with the given node ID set.
// Used internally by the executor to enrich the context per-node.
func (c *executionContext) withNodeID(nodeID string) *executionContext {
	return &executionContext{
		Context:  c.Context,
		logger:   observability.EnrichLogger(c.logger, c.runID, c.threadID, nodeID),
		kvStore:  c.kvStore,
		events:   c.events,
		metrics:  c.metrics,
		runID:    c.runID,
		threadID: c.threadID,
		nodeID:   nodeID,
	}
}
