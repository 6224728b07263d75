package agentgraph

import (
	"errors"
	"fmt"
)

// AddDynamicEdges declares the Goto targets a node may emit at runtime.
// Dynamic routing bypasses the edge table, so these declarations exist for
// compile-time validation and introspection only: declared targets count as
// outgoing edges in reachability analysis, and an undeclared target is
// still resolved at runtime (against the node map) exactly like a
// conditional-edge result.
// Returns the graph for method chaining.
func (g *Graph) AddDynamicEdges(from string, targets ...string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dynamicEdges[from] = append(g.dynamicEdges[from], targets...)
	return g
}

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails; multiple errors are joined.
//
// Validation checks:
//  1. Entry point is set and references an existing node
//  2. Every edge endpoint references an existing node or END
//  3. No node has more than one unconditional edge
//  4. Every node is reachable from the entry point (no orphans)
//  5. Every node has an outgoing edge: unconditional, conditional, or
//     declared dynamic targets (terminal nodes route to END)
//  6. Interrupt rules reference existing nodes, and require a checkpointer
func (g *Graph) Compile() (*CompiledGraph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	errs = append(errs, g.validateEdges()...)
	errs = append(errs, g.validateInterrupts()...)

	if g.entryPoint != "" {
		if _, exists := g.nodes[g.entryPoint]; exists {
			reachable := g.findReachableNodes()
			for id := range g.nodes {
				if !reachable[id] {
					errs = append(errs, fmt.Errorf("%w: %s", ErrOrphanNode, id))
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

// validateEdges checks edge endpoints and the one-unconditional-edge rule.
func (g *Graph) validateEdges() []error {
	var errs []error

	for from, targets := range g.edges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from))
		}
		if len(targets) > 1 {
			errs = append(errs, fmt.Errorf("%w: node %q has %d unconditional edges",
				ErrDuplicateEdge, from, len(targets)))
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: edge target %q", ErrNodeNotFound, to))
				}
			}
		}
	}

	for from := range g.conditionalEdges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source %q", ErrNodeNotFound, from))
		}
	}

	// A node that only ever returns Goto or Finish declares that intent with
	// AddDynamicEdges or AddEdge(id, END); a node with no outgoing edge of
	// any kind would fail routing at runtime.
	for id := range g.nodes {
		if len(g.edges[id]) > 0 || len(g.dynamicEdges[id]) > 0 {
			continue
		}
		if _, exists := g.conditionalEdges[id]; exists {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrDanglingNode, id))
	}

	for from, targets := range g.dynamicEdges {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: dynamic edge source %q", ErrNodeNotFound, from))
		}
		for _, to := range targets {
			if to != END {
				if _, exists := g.nodes[to]; !exists {
					errs = append(errs, fmt.Errorf("%w: dynamic edge target %q", ErrNodeNotFound, to))
				}
			}
		}
	}

	return errs
}

// validateInterrupts checks interrupt rules against the node map and the
// checkpointer requirement.
func (g *Graph) validateInterrupts() []error {
	var errs []error

	for id := range g.interruptBefore {
		if _, exists := g.nodes[id]; !exists {
			errs = append(errs, fmt.Errorf("%w: interrupt-before %q", ErrNodeNotFound, id))
		}
	}
	for id := range g.interruptAfter {
		if _, exists := g.nodes[id]; !exists {
			errs = append(errs, fmt.Errorf("%w: interrupt-after %q", ErrNodeNotFound, id))
		}
	}

	if (len(g.interruptBefore) > 0 || len(g.interruptAfter) > 0) && g.checkpointer == nil {
		errs = append(errs, fmt.Errorf("%w: interrupt rules require one", ErrNoCheckpointer))
	}

	return errs
}

// findReachableNodes returns the set of nodes reachable from the entry
// point. Conditional edges can return any node ID at runtime, so a node
// with a conditional edge is treated as reaching every node. Dynamic edge
// declarations contribute their declared targets.
func (g *Graph) findReachableNodes() map[string]bool {
	reachable := map[string]bool{g.entryPoint: true}
	queue := []string{g.entryPoint}

	enqueue := func(id string) {
		if id != END && !reachable[id] {
			reachable[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, target := range g.edges[current] {
			enqueue(target)
		}
		for _, target := range g.dynamicEdges[current] {
			enqueue(target)
		}
		if _, hasConditional := g.conditionalEdges[current]; hasConditional {
			for id := range g.nodes {
				enqueue(id)
			}
		}
	}

	return reachable
}

// buildCompiledGraph creates the immutable CompiledGraph from builder state.
func (g *Graph) buildCompiledGraph() *CompiledGraph {
	nodes := make(map[string]NodeFunc, len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	edges := make(map[string]string, len(g.edges))
	for from, targets := range g.edges {
		if len(targets) > 0 {
			edges[from] = targets[0]
		}
	}

	conditionalEdges := make(map[string]RouteFunc, len(g.conditionalEdges))
	for from, route := range g.conditionalEdges {
		conditionalEdges[from] = route
	}

	dynamicEdges := make(map[string][]string, len(g.dynamicEdges))
	for from, targets := range g.dynamicEdges {
		dynamicEdges[from] = append([]string(nil), targets...)
	}

	interruptBefore := make(map[string]bool, len(g.interruptBefore))
	for id := range g.interruptBefore {
		interruptBefore[id] = true
	}
	interruptAfter := make(map[string]bool, len(g.interruptAfter))
	for id := range g.interruptAfter {
		interruptAfter[id] = true
	}

	return &CompiledGraph{
		schema:           g.schema,
		nodes:            nodes,
		edges:            edges,
		conditionalEdges: conditionalEdges,
		dynamicEdges:     dynamicEdges,
		entryPoint:       g.entryPoint,
		interruptBefore:  interruptBefore,
		interruptAfter:   interruptAfter,
		checkpointer:     g.checkpointer,
		store:            g.store,
	}
}
