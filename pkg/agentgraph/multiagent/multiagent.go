// Package multiagent provides prebuilt orchestration patterns over the
// graph engine: a supervisor topology with central routing, a swarm of
// peers with mutual handoff, and the building blocks to assemble custom
// topologies from model-backed agent nodes.
package multiagent

import (
	"errors"
	"fmt"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/callback"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/model"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// ToolsNodeID is the node ID of the shared tool-execution node in the
// prebuilt topologies.
const ToolsNodeID = "tools"

// Sentinel errors for pattern construction.
var (
	// ErrNoAgents indicates a pattern was built with an empty agent list.
	ErrNoAgents = errors.New("at least one agent is required")

	// ErrNoModel indicates an agent has no chat model.
	ErrNoModel = errors.New("agent has no model")

	// ErrDuplicateAgent indicates two agents share a name.
	ErrDuplicateAgent = errors.New("duplicate agent name")
)

// Agent describes one model-backed participant in a topology.
type Agent struct {
	// Name is the agent's node ID. Must be unique within the topology and
	// must not collide with ToolsNodeID.
	Name string

	// Description tells other agents when to transfer to this one. Used as
	// the description of the generated handoff tool.
	Description string

	// Instructions is the agent's system prompt.
	Instructions string

	// Model produces the agent's assistant turns.
	Model model.ChatModel

	// Tools are the agent's own callable tools, in addition to any handoff
	// tools the pattern generates.
	Tools []tool.CallableTool
}

// NewAgentNode builds the node function for one agent: one assistant turn
// per visit. The model sees the agent's instructions, the transcript so
// far, and the given tool declarations; the produced turn is appended to
// the transcript and the agent is marked active.
//
// Routing is left to the surrounding graph: pair the node with a
// conditional edge (RouteAfterAgent) to dispatch requested tool calls.
func NewAgentNode(a Agent, decls []*tool.Declaration) agentgraph.NodeFunc {
	return func(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Outcome, error) {
		msgs := state.Messages()
		reqMsgs := make([]agentgraph.Message, 0, len(msgs)+1)
		if a.Instructions != "" {
			reqMsgs = append(reqMsgs, agentgraph.NewSystemMessage(a.Instructions))
		}
		reqMsgs = append(reqMsgs, msgs...)

		resp, err := a.Model.Complete(ctx, &model.Request{Messages: reqMsgs, Tools: decls})
		if err != nil {
			return agentgraph.Outcome{}, fmt.Errorf("agent %s: %w", a.Name, err)
		}

		ctx.Events().Emit(callback.Event{
			Type:     callback.ModelCalled,
			RunID:    ctx.RunID(),
			ThreadID: ctx.ThreadID(),
			Node:     ctx.NodeID(),
			Detail: map[string]any{
				"agent":        a.Name,
				"model":        a.Model.Name(),
				"total_tokens": resp.Usage.TotalTokens,
			},
		})

		return agentgraph.Continue(agentgraph.State{
			agentgraph.KeyMessages:    []agentgraph.Message{resp.Message},
			agentgraph.KeyActiveAgent: a.Name,
		}), nil
	}
}

// RouteAfterAgent routes to the tools node when the agent's latest turn
// requested tool calls, and to fallback otherwise. Use agentgraph.END as
// the fallback for terminal agents.
func RouteAfterAgent(fallback string) agentgraph.RouteFunc {
	return func(_ agentgraph.Context, state agentgraph.State) string {
		msgs := state.Messages()
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role != agentgraph.RoleAssistant {
				continue
			}
			if len(msgs[i].ToolCalls) > 0 {
				return ToolsNodeID
			}
			break
		}
		return fallback
	}
}

// RouteToActiveAgent routes back to the agent marked active in state, or to
// fallback when none is marked. This is the return path from the shared
// tool node; handoff calls never reach it because the tool node redirects
// them directly.
func RouteToActiveAgent(fallback string) agentgraph.RouteFunc {
	return func(_ agentgraph.Context, state agentgraph.State) string {
		if name, ok := state[agentgraph.KeyActiveAgent].(string); ok && name != "" {
			return name
		}
		return fallback
	}
}

// declarations collects tool declarations from callable tools.
func declarations(tools []tool.CallableTool) []*tool.Declaration {
	decls := make([]*tool.Declaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// validateAgents checks the shared construction invariants.
func validateAgents(agents []Agent) error {
	if len(agents) == 0 {
		return ErrNoAgents
	}
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		if a.Name == "" {
			return errors.New("agent name must not be empty")
		}
		if a.Name == ToolsNodeID || a.Name == agentgraph.END {
			return fmt.Errorf("agent name %q is reserved", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateAgent, a.Name)
		}
		seen[a.Name] = true
		if a.Model == nil {
			return fmt.Errorf("%w: %s", ErrNoModel, a.Name)
		}
	}
	return nil
}
