package agentgraph

// END is the terminal routing marker.
// Use it as an edge target, a conditional-edge result, or a Goto target to
// finish the run.
const END = "__end__"

// NodeFunc is the signature of every node in a graph.
// A node receives the execution context and the current state, and returns
// an Outcome carrying a partial state delta and an optional routing
// decision. Nodes must not assume they run exactly once per run: cycles may
// revisit them, and a resumed thread may re-enter the node that was about
// to run when the thread was interrupted.
type NodeFunc func(ctx Context, state State) (Outcome, error)

// RouteFunc decides the next node for a conditional edge.
// It receives the post-merge state and returns a registered node ID or END.
type RouteFunc func(ctx Context, state State) string

// Outcome is the tagged result of one node invocation.
// Construct it with Continue, Goto, Finish, or Suspend.
type Outcome struct {
	// Delta is the partial state update to merge. May be nil for
	// routing-only outcomes.
	Delta State

	// Route overrides edge-table resolution when non-empty: a node ID
	// redirects the run, END terminates it. Empty means "follow the edges".
	Route string

	// Interrupt, when set, suspends the run and surfaces the payload to
	// the caller. Delta and Route are ignored for interrupt outcomes.
	Interrupt *InterruptValue
}

// InterruptValue is the opaque payload surfaced by a suspended run.
type InterruptValue struct {
	Value any
}

// Continue returns a normal outcome: merge delta, then follow the edge table.
// A nil or empty delta only signals "no state change".
func Continue(delta State) Outcome {
	return Outcome{Delta: delta}
}

// Goto returns an outcome that merges delta and then jumps straight to
// target, bypassing the edge table. This is how dynamic routing (agent
// handoff, review insertion) is expressed without rebuilding the graph.
func Goto(target string, delta State) Outcome {
	return Outcome{Delta: delta, Route: target}
}

// Finish returns an outcome that merges delta and terminates the run.
func Finish(delta State) Outcome {
	return Outcome{Delta: delta, Route: END}
}

// Suspend returns an outcome that interrupts the run, surfacing value to
// the caller. The run checkpoints at this node; invoking the same thread
// again proceeds past it, re-resolving routing against the state at resume
// time (which the caller may have edited via UpdateState).
func Suspend(value any) Outcome {
	return Outcome{Interrupt: &InterruptValue{Value: value}}
}
