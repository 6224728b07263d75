package multiagent

import (
	"fmt"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// SwarmConfig assembles a swarm topology: peer agents with no central
// coordinator, each able to hand the conversation to any other peer.
type SwarmConfig struct {
	// Agents are the peers. The first one listed is the entry point. Each
	// peer's model is bound with handoff tools to every other peer, never
	// to itself.
	Agents []Agent

	// Checkpointer enables thread persistence for the built graph.
	Checkpointer checkpoint.Store

	// Store attaches a shared key-value store to the built graph.
	Store store.Store

	// ToolConcurrency bounds concurrent tool calls in the shared tool node.
	// Zero means the engine default.
	ToolConcurrency int
}

// Swarm builds and compiles the swarm topology.
//
// Control flow: the active peer produces a turn; a transfer tool call makes
// the named peer active, a regular tool call executes and returns to the
// caller, and a turn without tool calls ends the run. Which peer answers a
// resumed thread follows the active-agent marker in state, so a transfer
// survives suspension and resume.
func Swarm(cfg SwarmConfig) (*agentgraph.CompiledGraph, error) {
	if err := validateAgents(cfg.Agents); err != nil {
		return nil, err
	}

	registry := tool.NewRegistry()
	for _, peer := range cfg.Agents {
		for _, t := range peer.Tools {
			if err := registry.Register(t); err != nil {
				return nil, fmt.Errorf("agent %s tools: %w", peer.Name, err)
			}
		}
	}

	var toolOpts []agentgraph.ToolNodeOption
	if cfg.ToolConcurrency > 0 {
		toolOpts = append(toolOpts, agentgraph.WithToolConcurrency(cfg.ToolConcurrency))
	}

	entry := cfg.Agents[0].Name
	g := agentgraph.NewGraph(nil).
		AddNode(ToolsNodeID, agentgraph.NewToolNode(registry, toolOpts...)).
		SetEntry(entry).
		AddConditionalEdge(ToolsNodeID, RouteToActiveAgent(entry))

	peerNames := make([]string, 0, len(cfg.Agents))
	for _, peer := range cfg.Agents {
		peerNames = append(peerNames, peer.Name)
	}

	for _, peer := range cfg.Agents {
		decls := declarations(peer.Tools)
		for _, other := range cfg.Agents {
			if other.Name == peer.Name {
				continue
			}
			decls = append(decls, tool.NewHandoffTool(other.Name, other.Description).Declaration())
		}
		g.AddNode(peer.Name, NewAgentNode(peer, decls)).
			AddConditionalEdge(peer.Name, RouteAfterAgent(agentgraph.END))
	}
	g.AddDynamicEdges(ToolsNodeID, peerNames...)

	if cfg.Checkpointer != nil {
		g.WithCheckpointer(cfg.Checkpointer)
	}
	if cfg.Store != nil {
		g.WithStore(cfg.Store)
	}

	return g.Compile()
}
