package agentgraph

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/observability"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// DefaultToolConcurrency bounds concurrent tool calls within one step.
const DefaultToolConcurrency = 4

// toolNodeConfig holds configuration for a tool-execution node.
type toolNodeConfig struct {
	concurrency int
}

// ToolNodeOption configures a tool-execution node.
type ToolNodeOption func(*toolNodeConfig)

// WithToolConcurrency sets the worker-pool size for concurrent tool calls.
// Default: DefaultToolConcurrency.
func WithToolConcurrency(n int) ToolNodeOption {
	return func(c *toolNodeConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewToolNode builds a node that executes the tool calls requested by the
// last assistant message.
//
// Independent calls run concurrently on a bounded worker pool, but their
// result messages are appended in the invocation's original order so
// transcripts stay deterministic. An individual tool failure becomes a
// tool-result message carrying the error, never a node failure: the owning
// agent sees the failure in its next turn and can react.
//
// Handoff calls (names matching tool.HandoffPrefix) are not dispatched to
// the registry. A synthetic acknowledgement is folded in like any other
// result and the node redirects the run to the named agent; when several
// handoffs appear in one batch, the first one wins.
func NewToolNode(registry *tool.Registry, opts ...ToolNodeOption) NodeFunc {
	cfg := toolNodeConfig{concurrency: DefaultToolConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx Context, state State) (Outcome, error) {
		calls := pendingToolCalls(state)
		if len(calls) == 0 {
			return Continue(nil), nil
		}

		results := make([]Message, len(calls))

		pool, err := ants.NewPool(cfg.concurrency)
		if err != nil {
			return Outcome{}, fmt.Errorf("create tool pool: %w", err)
		}
		defer pool.Release()

		var wg sync.WaitGroup
		for i, call := range calls {
			if target, ok := tool.HandoffTarget(call.Name); ok {
				results[i] = NewToolMessage(call.ID, tool.HandoffAck(target))
				continue
			}

			wg.Add(1)
			i, call := i, call
			if err := pool.Submit(func() {
				defer wg.Done()
				results[i] = executeToolCall(ctx, registry, call)
			}); err != nil {
				wg.Done()
				results[i] = NewToolMessage(call.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		wg.Wait()

		delta := State{KeyMessages: results}

		for _, call := range calls {
			if target, ok := tool.HandoffTarget(call.Name); ok {
				delta[KeyActiveAgent] = target
				return Goto(target, delta), nil
			}
		}
		return Continue(delta), nil
	}
}

// executeToolCall dispatches one call to the registry and renders its
// outcome as a tool-result message.
func executeToolCall(ctx Context, registry *tool.Registry, call ToolCall) Message {
	start := time.Now()

	t, err := registry.Lookup(call.Name)
	var result any
	if err == nil {
		result, err = t.Call(ctx, call.Arguments)
	}
	duration := time.Since(start)

	ctx.Metrics().RecordToolCall(ctx, call.Name, duration, err)
	observability.LogToolCall(ctx.Logger(), call.Name, call.ID, float64(duration.Milliseconds()), err)

	detail := map[string]any{"tool": call.Name, "call_id": call.ID}
	if err != nil {
		detail["error"] = err.Error()
	}
	ctx.Events().Emit(callback.Event{
		Type:     callback.ToolCalled,
		RunID:    ctx.RunID(),
		ThreadID: ctx.ThreadID(),
		Node:     ctx.NodeID(),
		Detail:   detail,
	})

	if err != nil {
		return NewToolMessage(call.ID, fmt.Sprintf("Error: %v", err))
	}
	return NewToolMessage(call.ID, formatToolResult(result))
}

// formatToolResult renders a tool's return value for the transcript.
func formatToolResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// pendingToolCalls returns the tool calls of the last assistant message.
// Messages after it are earlier results, not new requests.
func pendingToolCalls(state State) []ToolCall {
	msgs := state.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			return msgs[i].ToolCalls
		}
	}
	return nil
}
