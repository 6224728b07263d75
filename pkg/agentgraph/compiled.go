package agentgraph

import (
	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
)

// CompiledGraph is an immutable, executable graph produced by Compile.
//
// A CompiledGraph is safe to invoke concurrently for different thread IDs;
// the graph structure is shared read-only. Two concurrent invocations of the
// same thread are not supported: a thread is a strictly sequential chain of
// steps, each persisted before the next is chosen.
type CompiledGraph struct {
	schema           *Schema
	nodes            map[string]NodeFunc
	edges            map[string]string
	conditionalEdges map[string]RouteFunc
	dynamicEdges     map[string][]string
	entryPoint       string
	interruptBefore  map[string]bool
	interruptAfter   map[string]bool
	checkpointer     checkpoint.Store
	store            store.Store
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph) EntryPoint() string {
	return cg.entryPoint
}

// Schema returns the state schema the graph merges deltas with.
func (cg *CompiledGraph) Schema() *Schema {
	return cg.schema
}

// NodeIDs returns all node identifiers in the graph, in no particular order.
func (cg *CompiledGraph) NodeIDs() []string {
	ids := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		ids = append(ids, id)
	}
	return ids
}

// HasNode reports whether a node exists in the graph.
func (cg *CompiledGraph) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successor returns the unconditional edge target for a node, or "" if the
// node has none. Conditional and dynamic routing are runtime-determined.
func (cg *CompiledGraph) Successor(id string) string {
	return cg.edges[id]
}

// IsConditional reports whether the node routes through a conditional edge.
func (cg *CompiledGraph) IsConditional(id string) bool {
	_, exists := cg.conditionalEdges[id]
	return exists
}

// DynamicTargets returns the declared Goto targets for a node.
func (cg *CompiledGraph) DynamicTargets(id string) []string {
	return cg.dynamicEdges[id]
}

// Checkpointer returns the attached checkpoint store, or nil.
func (cg *CompiledGraph) Checkpointer() checkpoint.Store {
	return cg.checkpointer
}

// Store returns the attached shared key-value store, or nil.
func (cg *CompiledGraph) Store() store.Store {
	return cg.store
}

// getNode returns the node function for the given ID.
func (cg *CompiledGraph) getNode(id string) (NodeFunc, bool) {
	fn, exists := cg.nodes[id]
	return fn, exists
}

// getRoute returns the conditional route function for the given node.
func (cg *CompiledGraph) getRoute(id string) (RouteFunc, bool) {
	route, exists := cg.conditionalEdges[id]
	return route, exists
}
