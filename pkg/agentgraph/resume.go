package agentgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
)

// runPlan is the resolved starting position of one invocation: a fresh run
// from the entry point, or a continuation of a checkpointed thread.
type runPlan struct {
	state     State
	startNode string
	startStep int

	// skipGate names a node whose interrupt-before gate already fired and
	// suspended this thread; the gate is skipped once on re-entry.
	skipGate string
}

// prepareRun resolves where the invocation starts.
// Without a checkpointer, or for a thread with no checkpoints, the run
// starts fresh at the entry point. Otherwise the saved state is loaded, the
// caller's input is merged into it, and the start node follows from the
// latest checkpoint's reason:
//
//   - final: the thread completed; a new invocation starts over from entry
//   - next node recorded: re-enter there (skipping the gate that suspended us)
//   - pending node only (explicit interrupt): proceed past the suspended
//     node, re-resolving its routing against the state as edited
func (cg *CompiledGraph) prepareRun(ec *executionContext, input State) (*runPlan, error) {
	fresh := cg.schema.Apply(State{}, input)
	if cg.checkpointer == nil {
		return &runPlan{state: fresh, startNode: cg.entryPoint}, nil
	}

	cp, err := cg.checkpointer.Latest(ec, ec.threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return &runPlan{state: fresh, startNode: cg.entryPoint}, nil
	}
	if err != nil {
		return nil, &CheckpointError{ThreadID: ec.threadID, Op: "latest", Err: err}
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}

	saved, err := cg.schema.UnmarshalState(cp.State)
	if err != nil {
		return nil, &CheckpointError{ThreadID: ec.threadID, Op: "decode", Err: err}
	}
	state := cg.schema.Apply(saved, input)

	if cp.Reason == checkpoint.ReasonFinal {
		return &runPlan{state: state, startNode: cg.entryPoint, startStep: cp.Step}, nil
	}

	if cp.NextNode != "" {
		plan := &runPlan{state: state, startNode: cp.NextNode, startStep: cp.Step}
		if cp.PendingNode == cp.NextNode {
			plan.skipGate = cp.PendingNode
		}
		return plan, nil
	}

	if cp.PendingNode != "" {
		next, err := cg.nextNode(ec, state, cp.PendingNode, "")
		if err != nil {
			return nil, err
		}
		return &runPlan{state: state, startNode: next, startStep: cp.Step}, nil
	}

	return nil, &CheckpointError{
		ThreadID: ec.threadID,
		Op:       "resume",
		Err:      errors.New("checkpoint records neither a next nor a pending node"),
	}
}

// GetState returns the last persisted state for a thread, without side
// effects. Use it to inspect a suspended thread before resuming.
func (cg *CompiledGraph) GetState(ctx context.Context, threadID string) (State, error) {
	cp, err := cg.loadLatest(ctx, threadID)
	if err != nil {
		return nil, err
	}
	state, err := cg.schema.UnmarshalState(cp.State)
	if err != nil {
		return nil, &CheckpointError{ThreadID: threadID, Op: "decode", Err: err}
	}
	return state, nil
}

// UpdateState merges a delta into a thread's persisted state through the
// schema's reducers and persists the result, without advancing the step
// counter or running any node. This is how a human reviewer edits state
// between suspension and resume; the thread's resume position is preserved.
func (cg *CompiledGraph) UpdateState(ctx context.Context, threadID string, delta State) error {
	cp, err := cg.loadLatest(ctx, threadID)
	if err != nil {
		return err
	}

	saved, err := cg.schema.UnmarshalState(cp.State)
	if err != nil {
		return &CheckpointError{ThreadID: threadID, Op: "decode", Err: err}
	}

	merged := cg.schema.Apply(saved, delta)
	data, err := cg.schema.MarshalState(merged)
	if err != nil {
		return &CheckpointError{ThreadID: threadID, Op: "serialize", Err: err}
	}

	updated := checkpoint.New(threadID, cp.Step, checkpoint.ReasonUpdate, data)
	updated.NextNode = cp.NextNode
	updated.PendingNode = cp.PendingNode
	updated.Interrupt = cp.Interrupt

	if err := cg.checkpointer.Put(ctx, updated); err != nil {
		return &CheckpointError{ThreadID: threadID, Op: "put", Err: err}
	}
	return nil
}

// History returns all checkpoints for a thread, ordered by step.
func (cg *CompiledGraph) History(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	if cg.checkpointer == nil {
		return nil, ErrNoCheckpointer
	}
	cps, err := cg.checkpointer.List(ctx, threadID)
	if err != nil {
		return nil, &CheckpointError{ThreadID: threadID, Op: "list", Err: err}
	}
	return cps, nil
}

// loadLatest fetches and validates the latest checkpoint for a thread.
func (cg *CompiledGraph) loadLatest(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	if cg.checkpointer == nil {
		return nil, ErrNoCheckpointer
	}
	if threadID == "" {
		return nil, ErrThreadIDRequired
	}

	cp, err := cg.checkpointer.Latest(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoints, threadID)
	}
	if err != nil {
		return nil, &CheckpointError{ThreadID: threadID, Op: "latest", Err: err}
	}
	if cp.Version != checkpoint.Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}
	return cp, nil
}
