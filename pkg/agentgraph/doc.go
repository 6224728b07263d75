/*
Package agentgraph provides graph-based orchestration for LLM agent
workflows.

# Overview

agentgraph is a Go library for building and executing directed, possibly
cyclic graphs whose nodes are LLM calls, tool executions, and sub-agents.
State flows through the graph as a map merged by per-field reducers, so a
node returns only the delta it produced: a message transcript grows by
appending, never by replacement. Runs checkpoint after every step and can
suspend for human review and resume later on the same thread.

Features:
  - Reducer-based state merging with schema-typed checkpoints
  - Compile-time validation of graph structure
  - Thread persistence over memory, SQLite, or Redis
  - Interrupt-before/after gates and explicit in-node interrupts
  - Concurrent, order-preserving tool execution
  - Prebuilt supervisor and swarm multi-agent patterns
  - Structured logging, OpenTelemetry metrics and tracing

# Basic Usage

Build a graph with nodes and edges, compile it, and invoke:

	greet := func(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Outcome, error) {
	    reply := agentgraph.NewAssistantMessage("hello!")
	    return agentgraph.Continue(agentgraph.State{
	        agentgraph.KeyMessages: []agentgraph.Message{reply},
	    }), nil
	}

	compiled, err := agentgraph.NewGraph(nil).
	    AddNode("greet", greet).
	    AddEdge("greet", agentgraph.END).
	    SetEntry("greet").
	    Compile()
	if err != nil {
	    log.Fatal(err)
	}

	result, err := compiled.Invoke(context.Background(), agentgraph.State{
	    agentgraph.KeyMessages: []agentgraph.Message{agentgraph.NewUserMessage("hi")},
	})

# Conditional Branching

Conditional edges receive the post-merge state and name the next node:

	graph.AddConditionalEdge("agent", func(ctx agentgraph.Context, state agentgraph.State) string {
	    msgs := state.Messages()
	    if len(msgs) > 0 && len(msgs[len(msgs)-1].ToolCalls) > 0 {
	        return "tools"
	    }
	    return agentgraph.END
	})

A node can also bypass the edge table entirely by returning Goto, which is
how agent handoffs redirect control at runtime.

# Threads and Human-in-the-Loop

Compile with a checkpointer and invoke with a thread ID to persist every
step. InterruptBefore suspends the run before a gated node executes;
GetState and UpdateState let a reviewer inspect and edit the thread, and
invoking the same thread again continues where it stopped:

	compiled, _ := agentgraph.NewGraph(nil).
	    AddNode("agent", agent).
	    AddNode("tools", agentgraph.NewToolNode(registry)).
	    SetEntry("agent").
	    AddConditionalEdge("agent", routeAgent).
	    AddEdge("tools", agentgraph.END).
	    InterruptBefore("tools").
	    WithCheckpointer(checkpoint.NewMemoryStore()).
	    Compile()

	result, _ := compiled.Invoke(ctx, input, agentgraph.WithThreadID("thread-1"))
	// result.Status == agentgraph.StatusInterrupted

	_ = compiled.UpdateState(ctx, "thread-1", approvalDelta)
	result, _ = compiled.Invoke(ctx, nil, agentgraph.WithThreadID("thread-1"))
	// result.Status == agentgraph.StatusComplete

# Multi-Agent Patterns

The multiagent subpackage assembles supervisor and swarm topologies from
model-backed agents, wiring handoff tools and a shared tool node for you.
*/
package agentgraph
