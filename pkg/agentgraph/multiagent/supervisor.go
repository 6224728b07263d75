package multiagent

import (
	"fmt"

	"github.com/mkoricho/agentgraph/pkg/agentgraph"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/tool"
)

// SupervisorConfig assembles a supervisor topology: one central routing
// agent that delegates to workers through generated handoff tools.
type SupervisorConfig struct {
	// Supervisor is the routing agent. Its model is bound with one handoff
	// tool per worker in addition to its own tools.
	Supervisor Agent

	// Agents are the workers. Each runs with its own model and tools and
	// routes back to the supervisor when it produces a turn without tool
	// calls.
	Agents []Agent

	// Checkpointer enables thread persistence for the built graph.
	Checkpointer checkpoint.Store

	// Store attaches a shared key-value store to the built graph.
	Store store.Store

	// ToolConcurrency bounds concurrent tool calls in the shared tool node.
	// Zero means the engine default.
	ToolConcurrency int
}

// Supervisor builds and compiles the supervisor topology.
//
// Control flow: the supervisor produces a turn; a transfer tool call routes
// to that worker, a regular tool call executes and returns to the
// supervisor, and a turn without tool calls ends the run. Workers route
// their own tool calls through the same shared tool node and hand control
// back to the supervisor when done.
func Supervisor(cfg SupervisorConfig) (*agentgraph.CompiledGraph, error) {
	if err := validateAgents(append([]Agent{cfg.Supervisor}, cfg.Agents...)); err != nil {
		return nil, err
	}
	if len(cfg.Agents) == 0 {
		return nil, ErrNoAgents
	}

	registry := tool.NewRegistry()
	supervisorDecls := declarations(cfg.Supervisor.Tools)
	for _, t := range cfg.Supervisor.Tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("supervisor tools: %w", err)
		}
	}
	for _, worker := range cfg.Agents {
		handoff := tool.NewHandoffTool(worker.Name, worker.Description)
		supervisorDecls = append(supervisorDecls, handoff.Declaration())
		for _, t := range worker.Tools {
			if err := registry.Register(t); err != nil {
				return nil, fmt.Errorf("agent %s tools: %w", worker.Name, err)
			}
		}
	}

	var toolOpts []agentgraph.ToolNodeOption
	if cfg.ToolConcurrency > 0 {
		toolOpts = append(toolOpts, agentgraph.WithToolConcurrency(cfg.ToolConcurrency))
	}

	g := agentgraph.NewGraph(nil).
		AddNode(cfg.Supervisor.Name, NewAgentNode(cfg.Supervisor, supervisorDecls)).
		AddNode(ToolsNodeID, agentgraph.NewToolNode(registry, toolOpts...)).
		SetEntry(cfg.Supervisor.Name).
		AddConditionalEdge(cfg.Supervisor.Name, RouteAfterAgent(agentgraph.END)).
		AddConditionalEdge(ToolsNodeID, RouteToActiveAgent(cfg.Supervisor.Name))

	workerNames := make([]string, 0, len(cfg.Agents))
	for _, worker := range cfg.Agents {
		workerNames = append(workerNames, worker.Name)
		g.AddNode(worker.Name, NewAgentNode(worker, declarations(worker.Tools))).
			AddConditionalEdge(worker.Name, RouteAfterAgent(cfg.Supervisor.Name))
	}
	// Handoff Gotos from the tool node target the workers directly.
	g.AddDynamicEdges(ToolsNodeID, workerNames...)

	if cfg.Checkpointer != nil {
		g.WithCheckpointer(cfg.Checkpointer)
	}
	if cfg.Store != nil {
		g.WithStore(cfg.Store)
	}

	return g.Compile()
}
