package agentgraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
)

// Graph is a mutable builder for creating execution graphs.
// Chain AddNode, AddEdge, AddConditionalEdge, and SetEntry calls to define
// the workflow, then call Compile to obtain an immutable CompiledGraph.
//
// Graph is NOT thread-safe during building. Construct it from a single
// goroutine; the CompiledGraph it produces is safe to share.
//
// Example:
//
//	graph := agentgraph.NewGraph(agentgraph.MessagesSchema()).
//	    AddNode("agent", agentNode).
//	    AddNode("tools", toolNode).
//	    AddConditionalEdge("agent", routeOnToolCalls).
//	    AddEdge("tools", "agent").
//	    SetEntry("agent")
//
//	compiled, err := graph.Compile()
type Graph struct {
	mu               sync.RWMutex
	schema           *Schema
	nodes            map[string]NodeFunc
	edges            map[string][]string
	conditionalEdges map[string]RouteFunc
	dynamicEdges     map[string][]string
	entryPoint       string
	interruptBefore  map[string]bool
	interruptAfter   map[string]bool
	checkpointer     checkpoint.Store
	store            store.Store
}

// NewGraph creates a graph builder using the given state schema.
// A nil schema defaults to MessagesSchema.
func NewGraph(schema *Schema) *Graph {
	if schema == nil {
		schema = MessagesSchema()
	}
	return &Graph{
		schema:           schema,
		nodes:            make(map[string]NodeFunc),
		edges:            make(map[string][]string),
		conditionalEdges: make(map[string]RouteFunc),
		dynamicEdges:     make(map[string][]string),
		interruptBefore:  make(map[string]bool),
		interruptAfter:   make(map[string]bool),
	}
}

// AddNode adds a named node to the graph.
// Returns the graph for method chaining.
//
// Panics if:
//   - id is empty, a reserved word ("END", "__end__"), or contains whitespace
//   - fn is nil
//   - id already exists in the graph
func (g *Graph) AddNode(id string, fn NodeFunc) *Graph {
	if id == "" {
		panic("agentgraph: node ID cannot be empty")
	}

	idLower := strings.ToLower(id)
	if idLower == "end" || idLower == END {
		panic("agentgraph: node ID cannot be reserved word 'END'")
	}

	if strings.ContainsAny(id, " \t\n\r") {
		panic("agentgraph: node ID cannot contain whitespace")
	}

	if fn == nil {
		panic("agentgraph: node function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[id]; exists {
		panic(fmt.Sprintf("agentgraph: duplicate node ID: %s", id))
	}

	g.nodes[id] = fn
	return g
}

// AddEdge adds an unconditional edge from one node to another.
// The target can be a node ID or agentgraph.END.
// Returns the graph for method chaining.
//
// Edge validation happens at Compile time, not here, so edges may be added
// in any order. A node may have at most one unconditional edge; a second
// one is a compile error.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[from] = append(g.edges[from], to)
	return g
}

// AddConditionalEdge adds a conditional edge whose RouteFunc picks the next
// node at runtime from the post-merge state.
// Returns the graph for method chaining.
//
// The route function must return a registered node ID or agentgraph.END;
// anything else fails the run with a routing error. When a node has both a
// conditional and an unconditional edge, the conditional edge wins and the
// unconditional edge is ignored.
func (g *Graph) AddConditionalEdge(from string, route RouteFunc) *Graph {
	if route == nil {
		panic("agentgraph: route function cannot be nil")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.conditionalEdges[from] = route
	return g
}

// SetEntry designates the entry point node.
// Entry point validation happens at Compile time.
// Returns the graph for method chaining.
func (g *Graph) SetEntry(id string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.entryPoint = id
	return g
}

// InterruptBefore suspends the run just before any of the named nodes
// executes, returning control to the caller. Invoking the same thread again
// re-enters at that node. Requires a checkpointer.
// Returns the graph for method chaining.
func (g *Graph) InterruptBefore(nodes ...string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range nodes {
		g.interruptBefore[id] = true
	}
	return g
}

// InterruptAfter suspends the run just after any of the named nodes
// executes and its delta is merged. Invoking the same thread again
// continues with the node's routing result. Requires a checkpointer.
// Returns the graph for method chaining.
func (g *Graph) InterruptAfter(nodes ...string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range nodes {
		g.interruptAfter[id] = true
	}
	return g
}

// WithCheckpointer attaches a checkpoint store to the compiled graph.
// Runs carrying a thread ID persist a checkpoint after every step and
// resume from the latest one.
// Returns the graph for method chaining.
func (g *Graph) WithCheckpointer(cp checkpoint.Store) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.checkpointer = cp
	return g
}

// WithStore attaches a shared key-value store, exposed to nodes through the
// execution context for cross-thread memory.
// Returns the graph for method chaining.
func (g *Graph) WithStore(kv store.Store) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.store = kv
	return g
}
