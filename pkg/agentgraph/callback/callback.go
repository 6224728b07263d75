// Package callback defines the lifecycle-event boundary between the graph
// executor and observers (audit logs, UIs, evaluators). Events are fired in
// causal order, at least once per event per run; delivery is best-effort so
// observer failures never abort the workflow they observe.
package callback

import (
	"log/slog"
	"time"
)

// Type identifies a lifecycle event.
type Type string

// Lifecycle event types, in causal order within a run.
const (
	RunStarted  Type = "run_started"
	RunStep     Type = "run_step"
	ModelCalled Type = "model_called"
	ToolCalled  Type = "tool_called"
	RunFinished Type = "run_finished"
	RunFailed   Type = "run_failed"
)

// Event is one lifecycle notification.
type Event struct {
	// Type identifies the lifecycle transition.
	Type Type

	// RunID identifies the invocation that fired the event.
	RunID string

	// ThreadID identifies the logical thread, if the run has one.
	ThreadID string

	// Node is the node the event concerns, when applicable.
	Node string

	// Time is when the event fired.
	Time time.Time

	// Detail carries event-specific payload: the step number for RunStep,
	// the tool name for ToolCalled, the error text for RunFailed.
	Detail map[string]any
}

// Sink receives lifecycle events.
// A sink must tolerate at-least-once delivery, and OnEvent must be safe for
// concurrent calls: tool execution emits ToolCalled from the worker
// goroutines running the calls, so events within one step can arrive
// concurrently. Returning an error stops dispatch to sinks later in the same
// composite for that event, but never fails the run.
type Sink interface {
	OnEvent(evt Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(evt Event) error

// OnEvent implements Sink.
func (f SinkFunc) OnEvent(evt Event) error {
	return f(evt)
}

// Sinks is a composite of sinks sharing one event stream. Dispatch is
// in-order and best-effort: the first sink error stops delivery of that
// event to the remaining sinks, is reported through onError, and the run
// proceeds.
type Sinks struct {
	sinks   []Sink
	onError func(evt Event, err error)
}

// NewSinks builds a composite over the given sinks.
func NewSinks(sinks ...Sink) *Sinks {
	return &Sinks{sinks: sinks}
}

// WithErrorHandler sets the handler invoked when a sink fails.
// The default logs at warn level via slog.
func (s *Sinks) WithErrorHandler(fn func(evt Event, err error)) *Sinks {
	s.onError = fn
	return s
}

// Emit dispatches an event to every sink in registration order.
func (s *Sinks) Emit(evt Event) {
	if s == nil {
		return
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	for _, sink := range s.sinks {
		if err := sink.OnEvent(evt); err != nil {
			if s.onError != nil {
				s.onError(evt, err)
			} else {
				slog.Warn("callback sink failed",
					slog.String("event", string(evt.Type)),
					slog.String("run_id", evt.RunID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// Len returns the number of registered sinks.
func (s *Sinks) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sinks)
}
