package agentgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/observability"
)

// Status is the terminal disposition of one invocation.
type Status string

// Invocation statuses.
const (
	// StatusComplete means the run reached END.
	StatusComplete Status = "complete"

	// StatusInterrupted means the run suspended on an interrupt point and
	// can be continued by invoking the same thread again.
	StatusInterrupted Status = "interrupted"
)

// Result is the outcome of one invocation.
type Result struct {
	// Status reports whether the run completed or suspended.
	Status Status

	// State is the state at the point the invocation returned: final state
	// for StatusComplete, the checkpointed state for StatusInterrupted.
	State State

	// Interrupt carries the payload of an explicit in-node interrupt.
	// Nil for interrupt-before/after rule hits and for completed runs.
	Interrupt any

	// Steps is the number of nodes executed by this invocation.
	Steps int
}

// Invoke executes the graph with the given input state.
//
// Without a checkpointer the run starts at the entry point with the input
// merged into the schema's defaults. With a checkpointer, Invoke is also the
// resume path: if the thread already has checkpoints, the saved state is
// loaded, the input is merged into it, and execution continues from the
// persisted position.
//
// On StatusInterrupted the thread is checkpointed; inspect it with GetState,
// edit it with UpdateState, and continue by calling Invoke again with the
// same thread ID.
//
// A CompiledGraph is safe for concurrent Invoke across distinct thread IDs.
// Concurrent invocations of the same thread are not supported.
func (cg *CompiledGraph) Invoke(ctx context.Context, input State, opts ...InvokeOption) (result *Result, runErr error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	cfg := defaultInvokeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cg.checkpointer != nil && cfg.threadID == "" {
		return nil, ErrThreadIDRequired
	}

	runID := uuid.New().String()

	runCtx := ctx
	var runSpan trace.Span
	if cfg.tracingEnabled {
		runCtx, runSpan = cfg.spans.StartRunSpan(ctx, runID, cfg.threadID)
		defer func() {
			cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	ec := &executionContext{
		Context:  runCtx,
		logger:   cfg.logger,
		kvStore:  cg.store,
		events:   cfg.sinks,
		metrics:  cfg.metrics,
		runID:    runID,
		threadID: cfg.threadID,
	}

	plan, err := cg.prepareRun(ec, input)
	if err != nil {
		return nil, err
	}

	observability.LogRunStart(cfg.logger, runID, cfg.threadID, plan.startNode)
	ec.events.Emit(callback.Event{
		Type:     callback.RunStarted,
		RunID:    runID,
		ThreadID: cfg.threadID,
		Node:     plan.startNode,
	})

	start := time.Now()
	result, runErr = cg.run(ec, plan, &cfg)
	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())

	cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, lastNodeOf(runErr))
		ec.events.Emit(callback.Event{
			Type:     callback.RunFailed,
			RunID:    runID,
			ThreadID: cfg.threadID,
			Node:     lastNodeOf(runErr),
			Detail:   map[string]any{"error": runErr.Error()},
		})
		return nil, runErr
	}

	observability.LogRunComplete(cfg.logger, runID, durationMs, result.Steps)
	ec.events.Emit(callback.Event{
		Type:     callback.RunFinished,
		RunID:    runID,
		ThreadID: cfg.threadID,
		Detail:   map[string]any{"status": string(result.Status), "steps": result.Steps},
	})
	return result, nil
}

// run drives the step loop: interrupt-before gate, node invocation, reducer
// merge, routing, interrupt-after gate, checkpoint.
func (cg *CompiledGraph) run(ec *executionContext, plan *runPlan, cfg *invokeConfig) (*Result, error) {
	state := plan.state
	current := plan.startNode
	step := plan.startStep
	skipGate := plan.skipGate
	executed := 0

	for current != END {
		if executed >= cfg.maxSteps {
			return nil, &MaxStepsError{Max: cfg.maxSteps, NodeID: current}
		}

		// Interrupt-before gate. Skipped exactly once when resuming the
		// thread whose suspension this gate caused.
		if cg.interruptBefore[current] && current != skipGate {
			if err := cg.saveCheckpoint(ec, cfg, state, step, checkpoint.ReasonInterruptBefore, current, current, nil); err != nil {
				return nil, err
			}
			observability.LogRunInterrupted(cfg.logger, ec.runID, current, string(checkpoint.ReasonInterruptBefore), step)
			return &Result{Status: StatusInterrupted, State: state, Steps: executed}, nil
		}
		skipGate = ""

		nodeCtx := ec.withNodeID(current)
		var nodeSpan trace.Span
		if cfg.tracingEnabled {
			var spanCtx context.Context
			spanCtx, nodeSpan = cfg.spans.StartNodeSpan(nodeCtx, current, step+1)
			nodeCtx.Context = spanCtx
		}

		observability.LogNodeStart(cfg.logger, current, step+1)

		nodeStart := time.Now()
		outcome, nodeErr := cg.executeNode(nodeCtx, current, state)
		nodeDuration := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeCtx, current, nodeDuration, nodeErr)
		if cfg.tracingEnabled {
			cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}
		if nodeErr != nil {
			observability.LogNodeError(cfg.logger, current, nodeErr)
			return nil, nodeErr
		}
		step++
		executed++

		// Explicit in-node interrupt: checkpoint with routing unresolved.
		// Invoking the thread again proceeds past this node, re-resolving
		// its routing against the state at resume time.
		if outcome.Interrupt != nil {
			payload, err := json.Marshal(outcome.Interrupt.Value)
			if err != nil {
				return nil, &NodeError{NodeID: current, Err: fmt.Errorf("encode interrupt payload: %w", err)}
			}
			if err := cg.saveCheckpoint(ec, cfg, state, step, checkpoint.ReasonSuspend, "", current, payload); err != nil {
				return nil, err
			}
			observability.LogRunInterrupted(cfg.logger, ec.runID, current, string(checkpoint.ReasonSuspend), step)
			return &Result{Status: StatusInterrupted, State: state, Interrupt: outcome.Interrupt.Value, Steps: executed}, nil
		}

		state = cg.schema.Apply(state, outcome.Delta)

		next, err := cg.nextNode(nodeCtx, state, current, outcome.Route)
		if err != nil {
			return nil, err
		}

		observability.LogNodeComplete(cfg.logger, current, float64(nodeDuration.Milliseconds()), next)
		ec.events.Emit(callback.Event{
			Type:     callback.RunStep,
			RunID:    ec.runID,
			ThreadID: ec.threadID,
			Node:     current,
			Detail:   map[string]any{"step": step, "next": next},
		})

		if cg.interruptAfter[current] {
			if err := cg.saveCheckpoint(ec, cfg, state, step, checkpoint.ReasonInterruptAfter, next, "", nil); err != nil {
				return nil, err
			}
			observability.LogRunInterrupted(cfg.logger, ec.runID, current, string(checkpoint.ReasonInterruptAfter), step)
			return &Result{Status: StatusInterrupted, State: state, Steps: executed}, nil
		}

		// The final checkpoint below covers the terminal transition.
		if next != END {
			if err := cg.saveCheckpoint(ec, cfg, state, step, checkpoint.ReasonStep, next, "", nil); err != nil {
				return nil, err
			}
		}

		current = next
	}

	if err := cg.saveCheckpoint(ec, cfg, state, step, checkpoint.ReasonFinal, "", "", nil); err != nil {
		return nil, err
	}
	return &Result{Status: StatusComplete, State: state, Steps: executed}, nil
}

// executeNode executes a single node with panic recovery.
func (cg *CompiledGraph) executeNode(ctx Context, nodeID string, state State) (outcome Outcome, err error) {
	fn, exists := cg.getNode(nodeID)
	if !exists {
		// Unreachable if compilation succeeded.
		return Outcome{}, &NodeError{NodeID: nodeID, Err: ErrNodeNotFound}
	}

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{}
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	outcome, err = fn(ctx, state)
	if err != nil {
		return outcome, &NodeError{NodeID: nodeID, Err: err}
	}
	return outcome, nil
}

// nextNode resolves the node to execute after current.
// A non-empty route (Goto/Finish) has final say and bypasses the edge table;
// otherwise conditional edges take precedence over the unconditional one.
func (cg *CompiledGraph) nextNode(ctx Context, state State, current, route string) (string, error) {
	if route != "" {
		if route == END {
			return END, nil
		}
		if !cg.HasNode(route) {
			return "", &RouteError{FromNode: current, Target: route, Err: ErrRouteTargetNotFound}
		}
		return route, nil
	}

	if routeFn, exists := cg.getRoute(current); exists {
		next := routeFn(ctx, state)
		if next == "" {
			return "", &RouteError{FromNode: current, Target: next, Err: ErrInvalidRoute}
		}
		if next != END && !cg.HasNode(next) {
			return "", &RouteError{FromNode: current, Target: next, Err: ErrRouteTargetNotFound}
		}
		return next, nil
	}

	if to, exists := cg.edges[current]; exists {
		return to, nil
	}

	// Unreachable if compilation succeeded: validation rejects dangling
	// non-terminal nodes.
	return "", &RouteError{FromNode: current, Err: ErrDanglingNode}
}

// saveCheckpoint persists the thread's position. A persistence failure is
// fatal to the run: proceeding past a lost checkpoint would make the thread
// unresumable without the caller knowing.
func (cg *CompiledGraph) saveCheckpoint(ec *executionContext, cfg *invokeConfig, state State, step int, reason checkpoint.Reason, next, pending string, interrupt []byte) error {
	if cg.checkpointer == nil {
		return nil
	}

	data, err := cg.schema.MarshalState(state)
	if err != nil {
		observability.LogCheckpointError(cfg.logger, ec.threadID, "serialize", err)
		return &CheckpointError{ThreadID: ec.threadID, Op: "serialize", Err: err}
	}

	cp := checkpoint.New(ec.threadID, step, reason, data)
	if next != "" {
		cp = cp.WithNextNode(next)
	}
	if pending != "" {
		cp = cp.WithPendingNode(pending)
	}
	if interrupt != nil {
		cp = cp.WithInterrupt(interrupt)
	}

	if err := cg.checkpointer.Put(ec, cp); err != nil {
		observability.LogCheckpointError(cfg.logger, ec.threadID, "put", err)
		return &CheckpointError{ThreadID: ec.threadID, Op: "put", Err: err}
	}

	observability.LogCheckpoint(cfg.logger, ec.threadID, step, string(reason), len(data))
	cfg.metrics.RecordCheckpoint(ec, ec.threadID, int64(len(data)))
	return nil
}

// lastNodeOf extracts the node a failure occurred at, for diagnostics.
func lastNodeOf(err error) string {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.NodeID
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return panicErr.NodeID
	}
	var routeErr *RouteError
	if errors.As(err, &routeErr) {
		return routeErr.FromNode
	}
	var maxErr *MaxStepsError
	if errors.As(err, &maxErr) {
		return maxErr.NodeID
	}
	return ""
}
