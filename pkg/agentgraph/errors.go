package agentgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph building and compilation.
var (
	// ErrNoEntryPoint indicates SetEntry was not called before Compile.
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrEntryNotFound indicates the entry point references a non-existent node.
	ErrEntryNotFound = errors.New("entry point node not found")

	// ErrNodeNotFound indicates an edge or interrupt rule references a
	// non-existent node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateEdge indicates a node has more than one unconditional edge.
	ErrDuplicateEdge = errors.New("duplicate unconditional edge")

	// ErrOrphanNode indicates a node has no inbound path from the entry point.
	ErrOrphanNode = errors.New("node unreachable from entry")

	// ErrDanglingNode indicates a non-terminal node has no outgoing edge.
	ErrDanglingNode = errors.New("node has no outgoing edge")
)

// Sentinel errors for execution.
var (
	// ErrMaxSteps indicates the step loop exceeded the configured limit.
	ErrMaxSteps = errors.New("exceeded maximum steps")

	// ErrNilContext indicates Invoke was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrInvalidRoute indicates a conditional edge returned an empty string.
	ErrInvalidRoute = errors.New("conditional edge returned empty string")

	// ErrRouteTargetNotFound indicates a routing target is not a registered
	// node and not the END marker.
	ErrRouteTargetNotFound = errors.New("routing target not found")
)

// Sentinel errors for checkpointing and thread state.
var (
	// ErrNoCheckpointer indicates a thread operation was attempted on a
	// graph compiled without a checkpointer.
	ErrNoCheckpointer = errors.New("no checkpointer configured")

	// ErrThreadIDRequired indicates checkpointing was enabled without a
	// thread ID.
	ErrThreadIDRequired = errors.New("thread ID required for checkpointing")

	// ErrNoCheckpoints indicates no checkpoints exist for the thread.
	ErrNoCheckpoints = errors.New("no checkpoints found for thread")

	// ErrCheckpointVersionMismatch indicates an incompatible checkpoint format.
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")
)

// NodeError wraps a node execution failure with its node context.
type NodeError struct {
	// NodeID identifies the node that failed.
	NodeID string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// RouteError wraps a routing failure, distinct from node execution errors
// for diagnosability.
type RouteError struct {
	// FromNode is the node whose routing failed.
	FromNode string
	// Target is the route that could not be resolved.
	Target string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RouteError) Error() string {
	return fmt.Sprintf("route from %s to %q: %v", e.FromNode, e.Target, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RouteError) Unwrap() error {
	return e.Err
}

// CheckpointError wraps a persistence failure. When checkpointing is
// configured the run cannot safely proceed past one of these.
type CheckpointError struct {
	// ThreadID is the thread whose checkpoint operation failed.
	ThreadID string
	// Op is the operation that failed ("put", "latest", "serialize").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a node.
type PanicError struct {
	// NodeID identifies the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// MaxStepsError reports a run that exceeded the step limit, with the node
// that would have executed next.
type MaxStepsError struct {
	// Max is the configured step limit.
	Max int
	// NodeID is the node that would have executed next.
	NodeID string
}

// Error implements the error interface.
func (e *MaxStepsError) Error() string {
	return fmt.Sprintf("exceeded maximum steps (%d) at node %s", e.Max, e.NodeID)
}

// Unwrap returns ErrMaxSteps for errors.Is support.
func (e *MaxStepsError) Unwrap() error {
	return ErrMaxSteps
}
